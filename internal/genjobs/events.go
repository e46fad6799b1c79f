package genjobs

import (
	"bytes"
	"encoding/json"
	"io"
)

func encodeEvent(payload any) (io.Reader, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}
