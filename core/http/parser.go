package http

import (
	"bytes"
	"strings"
)

// Limits is the subset of Config the parser needs; kept as its own
// type so this package carries no dependency on the config package.
type Limits struct {
	MaxURILength  int
	MaxHeaderSize int
	MaxBodySize   int64
}

// ParseRequest is total: the request line is validated before a Request
// is acquired, and a header or body failure releases that Request again
// before the error is returned. data must
// already contain a full header terminator (the driver detects that
// boundary before invoking the parser); ParseRequest re-locates it to
// know where the header section ends and to split off the body.
func ParseRequest(data []byte, limits Limits) (*Request, error) {
	headerEnd := bytes.Index(data, []byte("\r\n\r\n"))
	sepLen := 4
	if headerEnd < 0 {
		headerEnd = bytes.Index(data, []byte("\n\n"))
		sepLen = 2
		if headerEnd < 0 {
			return nil, ErrInvalidRequest
		}
	}

	headerSection := data[:headerEnd]
	if limits.MaxHeaderSize > 0 && len(headerSection) > limits.MaxHeaderSize {
		return nil, ErrHeadersTooLarge
	}

	lineEnd := bytes.IndexByte(headerSection, '\n')
	var requestLine []byte
	var headerLines []byte
	if lineEnd < 0 {
		requestLine = headerSection
	} else {
		requestLine = trimCR(headerSection[:lineEnd])
		headerLines = headerSection[lineEnd+1:]
	}

	method, uri, version, err := parseRequestLine(requestLine, limits)
	if err != nil {
		return nil, err
	}

	path, query := splitURI(uri)

	req := AcquireRequest()
	req.Method = method
	req.Path = path
	req.Query = query
	req.Version = version

	if err := parseHeaderLines(headerLines, req); err != nil {
		ReleaseRequest(req)
		return nil, err
	}

	contentLength := req.ContentLength()
	if contentLength > 0 {
		if limits.MaxBodySize > 0 && contentLength > limits.MaxBodySize {
			ReleaseRequest(req)
			return nil, ErrBodyTooLarge
		}
		bodyStart := headerEnd + sepLen
		available := data[bodyStart:]
		n := contentLength
		if int64(len(available)) < n {
			n = int64(len(available))
		}
		req.Body = append(req.Body[:0], available[:n]...)
	}

	return req, nil
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}

// parseRequestLine splits line on single spaces into exactly three
// tokens and validates each per the wire contract.
func parseRequestLine(line []byte, limits Limits) (method, uri, version string, err error) {
	first := bytes.IndexByte(line, ' ')
	if first < 0 {
		return "", "", "", ErrInvalidRequestLine
	}
	rest := line[first+1:]
	second := bytes.IndexByte(rest, ' ')
	if second < 0 {
		return "", "", "", ErrInvalidRequestLine
	}

	methodBytes := line[:first]
	uriBytes := rest[:second]
	versionBytes := rest[second+1:]

	if len(methodBytes) == 0 || len(methodBytes) > MaxMethodLength {
		return "", "", "", ErrInvalidRequestLine
	}
	method = string(methodBytes)
	if !IsRecognizedMethod(method) {
		return "", "", "", ErrInvalidRequestLine
	}

	maxURI := limits.MaxURILength
	if maxURI <= 0 {
		maxURI = 2048
	}
	if len(uriBytes) == 0 || len(uriBytes) > maxURI || bytes.IndexByte(uriBytes, 0) >= 0 {
		return "", "", "", ErrInvalidRequestLine
	}
	uri = string(uriBytes)

	if len(versionBytes) == 0 || len(versionBytes) > MaxVersionLength || !bytes.HasPrefix(versionBytes, []byte("HTTP/")) || bytes.IndexByte(versionBytes, ' ') >= 0 {
		return "", "", "", ErrInvalidRequestLine
	}
	version = string(versionBytes)

	return method, uri, version, nil
}

func splitURI(uri string) (path, query string) {
	if idx := strings.IndexByte(uri, '?'); idx >= 0 {
		return uri[:idx], uri[idx+1:]
	}
	return uri, ""
}

// parseHeaderLines splits data into CRLF- or LF-terminated header
// lines, validating each per the wire contract, and stores them on req.
func parseHeaderLines(data []byte, req *Request) error {
	count := 0
	for len(data) > 0 {
		nl := bytes.IndexByte(data, '\n')
		var line []byte
		if nl < 0 {
			line = data
			data = nil
		} else {
			line = trimCR(data[:nl])
			data = data[nl+1:]
		}
		if len(line) == 0 {
			continue
		}
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			return ErrInvalidHeaderLine
		}
		name := strings.TrimSpace(string(line[:colon]))
		value := strings.TrimSpace(string(line[colon+1:]))

		if name == "" || len(name) > MaxHeaderNameSize {
			return ErrInvalidHeaderLine
		}
		if len(value) > MaxHeaderValueSize || strings.IndexAny(value, "\r\n\x00") >= 0 {
			return ErrInvalidHeaderLine
		}

		count++
		if count > MaxHeaderCount {
			return ErrTooManyHeaders
		}

		req.setHeader(name, value)
	}
	return nil
}

// ParseContentLength scans data (a raw, possibly-partial connection
// buffer) up to its first CRLF CRLF for a case-insensitive
// "content-length:" line and parses its decimal value. The connection
// driver uses this to learn the expected body length as soon as
// headers complete, independent of the full parser. Malformed or
// absent input yields ok=false.
func ParseContentLength(data []byte) (n int64, ok bool) {
	end := bytes.Index(data, []byte("\r\n\r\n"))
	if end < 0 {
		end = len(data)
	}
	section := data[:end]
	prefix := HeaderContentLength + ":"
	for _, line := range bytes.Split(section, []byte("\n")) {
		line = trimCR(line)
		if len(line) <= len(prefix) {
			continue
		}
		if !strings.EqualFold(string(line[:len(prefix)]), prefix) {
			continue
		}
		value := strings.TrimSpace(string(line[len(prefix):]))
		return parseDecimalNonNegative(value)
	}
	return 0, false
}
