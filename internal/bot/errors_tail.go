package bot

import (
	"bufio"
	"os"
)

// TailLastNLines returns the last n lines of the file at path. The error log
// is truncated on every start, so scanning the whole file stays cheap.
func TailLastNLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines := make([]string, 0, n)
	s := bufio.NewScanner(f)
	for s.Scan() {
		if len(lines) < n {
			lines = append(lines, s.Text())
			continue
		}
		copy(lines, lines[1:])
		lines[n-1] = s.Text()
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
