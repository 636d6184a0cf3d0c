// Package testutil holds filesystem helpers and canned project trees for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateFileTree creates multiple files from a map of slash-separated
// path -> content.
func CreateFileTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
	}
}

// MiddlewareProject is a small Next.js style project: two middleware
// modules sharing a copy-pasted guard, and three API routes whose chains
// disagree on order.
var MiddlewareProject = map[string]string{
	"src/middleware/auth.ts": `export function authenticate(req, res, next) {
  if (!req.headers.authorization) {
    return res.status(401).json({ error: 'unauthorized' });
  }
  next();
}

export function authorizeAdmin(req, res, next) {
  if (req.user.role !== 'admin') {
    return res.status(403).json({ error: 'forbidden' });
  }
  next();
}
`,
	"src/middleware/legacy.ts": `export function checkAuthLegacy(req, res, next) {
  if (!req.headers.authorization) {
    return res.status(401).json({ error: 'unauthorized' });
  }
  next();
}
`,
	"src/lib/validation.ts": `export const validateBody = (req, res, next) => {
  if (!req.body) {
    return res.status(400).json({ error: 'missing body' });
  }
  next();
};
`,
	"app/api/users/route.ts": `export async function GET(req) {
  app.use(authenticate);
  app.use(validateBody);
}
`,
	"app/api/posts/route.ts": `export async function GET(req) {
  app.use(authenticate);
  app.use(validateBody);
}
`,
	"app/api/admin/route.ts": `export async function POST(req) {
  app.use(validateBody);
  app.use(authenticate);
  app.use(authorizeAdmin);
}
`,
	"src/components/README.md": "not source\n",
}

// WriteMiddlewareProject writes MiddlewareProject under a fresh temp dir
// and returns the root.
func WriteMiddlewareProject(t testing.TB) string {
	t.Helper()
	root := t.TempDir()
	CreateFileTree(t, root, MiddlewareProject)
	return root
}
