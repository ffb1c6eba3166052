package history

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const jsonIndent = "    "

// maxNameAttempts bounds the suffixed retries after a name collision.
const maxNameAttempts = 5

// FileStore keeps the context in one JSON file and archives each
// conversation as its own JSON file inside a directory.
type FileStore struct {
	contextPath      string
	conversationsDir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at the given paths. Nothing is created
// on disk until the first save.
func NewFileStore(contextPath, conversationsDir string) *FileStore {
	return &FileStore{
		contextPath:      contextPath,
		conversationsDir: conversationsDir,
	}
}

// ContextPath returns the context file location.
func (s *FileStore) ContextPath() string { return s.contextPath }

// ConversationsDir returns the archive directory.
func (s *FileStore) ConversationsDir() string { return s.conversationsDir }

// LoadContext reads the context file. A missing file yields an empty slice.
func (s *FileStore) LoadContext() ([]Message, error) {
	b, err := os.ReadFile(s.contextPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Message{}, nil
		}
		return nil, &StoreError{Op: "read", Path: s.contextPath, Err: err}
	}
	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, &StoreError{Op: "parse", Path: s.contextPath, Err: err}
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

// SaveContext overwrites the context file with msgs. The write goes through
// a temp file in the same directory followed by a rename, so readers see
// either the old or the new content.
func (s *FileStore) SaveContext(msgs []Message) error {
	b, err := json.MarshalIndent(Clone(msgs), "", jsonIndent)
	if err != nil {
		return &StoreError{Op: "write", Path: s.contextPath, Err: err}
	}
	if err := writeFileAtomic(s.contextPath, b); err != nil {
		return &StoreError{Op: "write", Path: s.contextPath, Err: err}
	}
	return nil
}

// SaveConversation writes msgs to conversation_YYYYMMDD_HHMMSS.json. The file
// is created exclusively; if a record for the same second already exists a
// short random suffix is appended instead of overwriting it.
func (s *FileStore) SaveConversation(at time.Time, msgs []Message) (string, error) {
	b, err := json.MarshalIndent(Clone(msgs), "", jsonIndent)
	if err != nil {
		return "", &StoreError{Op: "write", Path: s.conversationsDir, Err: err}
	}
	if err := os.MkdirAll(s.conversationsDir, 0o755); err != nil {
		return "", &StoreError{Op: "write", Path: s.conversationsDir, Err: err}
	}

	base := conversationBase(at)
	name := base + ".json"
	for attempt := 0; ; attempt++ {
		path := filepath.Join(s.conversationsDir, name)
		err := writeFileExclusive(path, b)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) || attempt >= maxNameAttempts {
			return "", &StoreError{Op: "write", Path: path, Err: err}
		}
		name = base + "_" + uuid.NewString()[:8] + ".json"
	}
}

func writeFileExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}
