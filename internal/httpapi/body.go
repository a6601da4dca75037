package httpapi

import (
	"errors"
	"io"
	"net/http"
)

// Slack payloads are small; anything past this is abuse.
const maxBodyBytes = 256 << 10 // 256 KiB

func readBody(r *http.Request, limit int64) ([]byte, error) {
	defer r.Body.Close()
	lr := io.LimitReader(r.Body, limit+1)

	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, errors.New("failed to read body")
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}
