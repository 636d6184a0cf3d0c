package output

import (
	"bytes"
	"io"
	"os"

	"github.com/panbanda/chainlint/internal/output"
)

// Format represents output format.
type Format = output.Format

// Supported formats (re-exported for convenience).
const (
	FormatText     = output.FormatText
	FormatJSON     = output.FormatJSON
	FormatMarkdown = output.FormatMarkdown
	FormatTOON     = output.FormatTOON
)

// Service writes reports to a terminal, a file or any writer.
type Service struct {
	format   Format
	writer   io.Writer
	colored  bool
	filePath string
	file     *os.File
}

// Option configures a Service.
type Option func(*Service)

// WithFormat sets the output format.
func WithFormat(f Format) Option {
	return func(s *Service) {
		s.format = f
	}
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(s *Service) {
		s.writer = w
	}
}

// WithColor enables or disables colored output.
func WithColor(enabled bool) Option {
	return func(s *Service) {
		s.colored = enabled
	}
}

// WithFile sets output to a file. An empty path keeps the writer.
func WithFile(path string) Option {
	return func(s *Service) {
		s.filePath = path
	}
}

// New creates a new output service. Text is the default format.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		format:  FormatText,
		writer:  os.Stdout,
		colored: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.filePath != "" {
		f, err := os.Create(s.filePath)
		if err != nil {
			return nil, err
		}
		s.file = f
		s.writer = f
		s.colored = false // No colors when writing to file
	}

	return s, nil
}

// Close closes the output service and any open files.
func (s *Service) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// Format returns the current format.
func (s *Service) Format() Format {
	return s.format
}

// Writer returns the current writer.
func (s *Service) Writer() io.Writer {
	return s.writer
}

// Colored returns whether output should be colored.
func (s *Service) Colored() bool {
	return s.colored
}

// Formatter returns a formatter bound to the service's writer.
func (s *Service) Formatter() *output.Formatter {
	return output.NewWriterFormatter(s.format, s.writer, s.colored)
}

// Output writes data in the service's format. Renderable data renders
// itself; anything else is serialized.
func (s *Service) Output(data any) error {
	return s.Formatter().Output(data)
}

// FormatData renders data in the service's format without color.
func (s *Service) FormatData(data any) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(s.format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) Format {
	return output.ParseFormat(s)
}
