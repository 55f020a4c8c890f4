package load

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// RemoveDuplicateRows removes duplicate rows from a CSV byte slice while preserving the header
// and keeping the first occurrence of any duplicate row. It returns the number of rows removed.
func RemoveDuplicateRows(csvData []byte) ([]byte, int, error) {
	if len(bytes.TrimSpace(csvData)) == 0 {
		return nil, 0, fmt.Errorf("received empty CSV data")
	}

	reader := csv.NewReader(bytes.NewReader(csvData))
	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	if err := writer.Write(header); err != nil {
		return nil, 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	seen := make(map[string]bool)
	removed := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read CSV record: %w", err)
		}

		// Fields cannot contain NUL, so joining on it is unambiguous.
		key := strings.Join(record, "\x00")
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		if err := writer.Write(record); err != nil {
			return nil, 0, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, 0, fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return buffer.Bytes(), removed, nil
}
