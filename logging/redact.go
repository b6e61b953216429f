package logging

import (
	"bytes"
	"io"
)

// RedactedText replaces every secret found in log output.
const RedactedText = "[REDACTED]"

// redactWriter masks secrets before handing log lines to the wrapped writer.
type redactWriter struct {
	Writer  io.Writer
	Secrets [][]byte
}

// Write implements io.Writer. It reports len(p) on success so zerolog does not treat
// a length change caused by redaction as a short write.
func (rw *redactWriter) Write(p []byte) (int, error) {
	if _, err := rw.Writer.Write(redactSecrets(p, rw.Secrets)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func redactSecrets(data []byte, secrets [][]byte) []byte {
	for _, secret := range secrets {
		data = bytes.ReplaceAll(data, secret, []byte(RedactedText))
	}
	return data
}

// nonEmptySecrets drops blank values, replacing "" would match between every byte.
func nonEmptySecrets(secrets []string) [][]byte {
	out := make([][]byte, 0, len(secrets))
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		out = append(out, []byte(secret))
	}
	return out
}
