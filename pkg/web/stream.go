package web

import (
	"encoding/json"
	"io"
	"iter"
	"net/http"
)

// StreamJSONArray writes the elements pulled from seq as a JSON array, flushing after each element.
// The status line is deferred until the first element is encoded (or the sequence ends empty),
// so when it returns an error with count == 0 nothing has been written and the caller may still
// respond with an error status. Once count > 0 the response is committed.
func StreamJSONArray[T any](w http.ResponseWriter, status int, seq iter.Seq2[T, error]) (count int, err error) {
	rc := http.NewResponseController(w)
	started := false
	start := func() error {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		started = true
		_, err := io.WriteString(w, "[")
		return err
	}

	for item, iterErr := range seq {
		if iterErr != nil {
			return count, iterErr
		}
		encoded, err := json.Marshal(item)
		if err != nil {
			return count, err
		}
		if !started {
			if err := start(); err != nil {
				return count, err
			}
		} else if _, err := io.WriteString(w, ","); err != nil {
			return count, err
		}
		if _, err := w.Write(encoded); err != nil {
			return count, err
		}
		count++
		// not every writer supports flushing, recorder-backed tests included
		_ = rc.Flush()
	}

	if !started {
		if err := start(); err != nil {
			return count, err
		}
	}
	_, err = io.WriteString(w, "]")
	return count, err
}
