// Package storage guarda los adjuntos del chat en disco local y los sirve
// como archivos estáticos. La URL pública que devuelve es la que se
// persiste en el mensaje, así que tiene que ser estable.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type DiskStore struct {
	root    string // directorio raíz de uploads en disco
	baseURL string // prefijo público, p.ej. http://localhost:8080
}

func NewDiskStore(root, baseURL string) *DiskStore {
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Save escribe el adjunto bajo chat-attachments/<conversación>/ con un
// prefijo de timestamp para que dos archivos con el mismo nombre no
// choquen. Devuelve la URL pública del archivo.
func (s *DiskStore) Save(ctx context.Context, conversationID, fileName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// filepath.Base corta cualquier intento de path traversal en el nombre.
	safeName := filepath.Base(fileName)
	if safeName == "." || safeName == string(os.PathSeparator) {
		safeName = "attachment"
	}
	stamped := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), safeName)

	dir := filepath.Join(s.root, "chat-attachments", conversationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creando directorio de adjuntos: %w", err)
	}

	dst, err := os.Create(filepath.Join(dir, stamped))
	if err != nil {
		return "", fmt.Errorf("creando archivo de adjunto: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("escribiendo adjunto: %w", err)
	}

	return fmt.Sprintf("%s/uploads/chat-attachments/%s/%s", s.baseURL, conversationID, stamped), nil
}
