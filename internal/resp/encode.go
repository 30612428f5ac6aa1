package resp

import (
	"errors"
	"strconv"
)

var errEmptyCommand = errors.New("resp: command needs at least one argument")

// EncodeCommand сериализует команду в multibulk-кадр:
// *<argc>\r\n, затем на каждый аргумент $<len>\r\n<bytes>\r\n.
// Длины явные, поэтому аргументы бинарно-безопасны (включая \r\n внутри).
func EncodeCommand(args ...string) ([]byte, error) {
	if len(args) == 0 {
		return nil, errEmptyCommand
	}
	size := 1 + len(strconv.Itoa(len(args))) + 2
	for _, arg := range args {
		size += 1 + len(strconv.Itoa(len(arg))) + 2 + len(arg) + 2
	}
	buf := make([]byte, 0, size)
	buf = append(buf, sigilArray)
	buf = strconv.AppendInt(buf, int64(len(args)), 10)
	buf = append(buf, '\r', '\n')
	for _, arg := range args {
		buf = append(buf, sigilBulk)
		buf = strconv.AppendInt(buf, int64(len(arg)), 10)
		buf = append(buf, '\r', '\n')
		buf = append(buf, arg...)
		buf = append(buf, '\r', '\n')
	}
	return buf, nil
}
