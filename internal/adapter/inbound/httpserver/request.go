package httpserver

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// errMalformedRequestLine marks a request line with fewer than three tokens.
// Such connections are closed without a response.
var errMalformedRequestLine = errors.New("malformed request line")

// request is a single parsed HTTP request.
type request struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    string
}

// readRequest parses one HTTP/1.1 request off the reader.
//
// Parsing is line-oriented: the request line must carry method, path, and
// version; header lines split on the first ": " and malformed ones are
// skipped (last write wins on duplicate names); a body is read only for POST
// and only for the exact byte count in Content-Length. A POST that carries a
// body without Content-Length therefore reads zero bytes even though bytes
// remain on the wire — a documented looseness kept for compatibility.
func readRequest(r io.Reader) (*request, error) {
	br := bufio.NewReader(r)

	line, err := readLine(br)
	if err != nil {
		return nil, err
	}
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return nil, errMalformedRequestLine
	}

	req := &request{
		Method:  parts[0],
		Path:    parts[1],
		Headers: make(map[string]string),
	}

	for {
		hline, err := readLine(br)
		if err != nil {
			return nil, err
		}
		if hline == "" {
			break
		}
		idx := strings.Index(hline, ": ")
		if idx < 0 {
			continue
		}
		req.Headers[hline[:idx]] = hline[idx+len(": "):]
	}

	if req.Method == "POST" {
		if cl, ok := req.Headers["Content-Length"]; ok {
			n, err := strconv.Atoi(strings.TrimSpace(cl))
			if err != nil || n <= 0 {
				return req, nil
			}
			body := make([]byte, n)
			if _, err := io.ReadFull(br, body); err != nil {
				return nil, err
			}
			req.Body = string(body)
		}
	}

	return req, nil
}

// readLine reads up to the next LF and strips the line terminator.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
