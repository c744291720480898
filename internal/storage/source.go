package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/FlowSync/internal/domain"
)

// ErrEmptyDocument — документ не содержит спецификации.
var ErrEmptyDocument = errors.New("empty document")

// Document — сырой документ спецификации из хранилища.
type Document struct {
	// Key — путь документа относительно корня хранилища.
	Key string

	// Content — содержимое документа.
	Content []byte
}

// DirSource читает документы из дерева каталогов.
type DirSource struct {
	fsys fs.FS
	root string
}

// NewDirSource создаёт источник поверх каталога на диске.
func NewDirSource(dir string) *DirSource {
	return &DirSource{fsys: os.DirFS(dir), root: dir}
}

// NewFSSource создаёт источник поверх произвольной fs.FS.
func NewFSSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys, root: "."}
}

// List возвращает все документы, отсортированные по ключу.
// Скрытые каталоги (.git и т.п.) пропускаются.
func (s *DirSource) List(ctx context.Context) ([]Document, error) {
	var docs []Document

	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !isSpecFile(p) {
			return nil
		}

		content, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		docs = append(docs, Document{Key: p, Content: content})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}

func isSpecFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

// ParseSpec разбирает документ в спецификацию и проверяет её.
//
// JSON — подмножество YAML, поэтому оба формата идут через yaml.v3.
// Неизвестные поля считаются ошибкой: опечатка в ключе не должна молча теряться.
func ParseSpec(doc Document) (*domain.WorkflowSpec, error) {
	if len(bytes.TrimSpace(doc.Content)) == 0 {
		return nil, ErrEmptyDocument
	}

	var spec domain.WorkflowSpec
	dec := yaml.NewDecoder(bytes.NewReader(doc.Content))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("parse: %w", err)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(doc.Content)
	spec.Checksum = hex.EncodeToString(sum[:])
	spec.SourceKey = doc.Key
	return &spec, nil
}
