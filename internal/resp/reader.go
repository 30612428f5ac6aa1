package resp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ReadReply читает один полный RESP-ответ из reader.
// Блокируется, пока не накопится целая строка с терминатором;
// EOF до терминатора или неизвестный сигил дают ErrProtocol.
func ReadReply(r *bufio.Reader) (Reply, error) {
	line, err := readLine(r)
	if err != nil {
		return Reply{}, err
	}
	if len(line) == 0 {
		return Reply{}, fmt.Errorf("%w: empty reply line", ErrProtocol)
	}

	payload := string(line[1:])
	switch line[0] {
	case sigilStatus:
		return Reply{Kind: KindStatus, Text: payload}, nil
	case sigilError:
		return Reply{Kind: KindError, Text: payload}, nil
	case sigilInteger:
		n, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: bad integer %q", ErrProtocol, payload)
		}
		return Reply{Kind: KindInteger, Int: n}, nil
	case sigilBulk:
		return readBulk(r, payload)
	case sigilArray:
		return readArray(r, payload)
	default:
		return Reply{}, fmt.Errorf("%w: unknown reply sigil %q", ErrProtocol, line[0])
	}
}

// readBulk читает тело bulk string: ровно size байт и терминатор.
func readBulk(r *bufio.Reader, header string) (Reply, error) {
	size, err := strconv.Atoi(header)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: bad bulk length %q", ErrProtocol, header)
	}
	if size == -1 {
		return Reply{Kind: KindBulk, Null: true}, nil
	}
	if size < 0 {
		return Reply{}, fmt.Errorf("%w: negative bulk length %d", ErrProtocol, size)
	}

	buf := make([]byte, size+2) // +2 под \r\n
	if _, err := io.ReadFull(r, buf); err != nil {
		// Обрыв соединения считается ошибкой протокола; таймауты
		// и прочие сетевые ошибки поднимаются как есть.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Reply{}, fmt.Errorf("%w: short bulk body", ErrProtocol)
		}
		return Reply{}, fmt.Errorf("read bulk body: %w", err)
	}
	if buf[size] != '\r' || buf[size+1] != '\n' {
		return Reply{}, fmt.Errorf("%w: bulk body missing terminator", ErrProtocol)
	}
	return Reply{Kind: KindBulk, Bulk: buf[:size]}, nil
}

// readArray рекурсивно читает элементы массива.
func readArray(r *bufio.Reader, header string) (Reply, error) {
	count, err := strconv.Atoi(header)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: bad array length %q", ErrProtocol, header)
	}
	if count == -1 {
		return Reply{Kind: KindArray, Null: true}, nil
	}
	if count < 0 {
		return Reply{}, fmt.Errorf("%w: negative array length %d", ErrProtocol, count)
	}

	items := make([]Reply, 0, count)
	for i := 0; i < count; i++ {
		item, err := ReadReply(r)
		if err != nil {
			return Reply{}, err
		}
		items = append(items, item)
	}
	return Reply{Kind: KindArray, Arr: items}, nil
}

// readLine читает строку до \r\n и возвращает ее без терминатора.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: connection closed before reply terminator", ErrProtocol)
		}
		return nil, err
	}
	n := len(line)
	if n < 2 || line[n-2] != '\r' {
		return nil, fmt.Errorf("%w: reply line missing terminator", ErrProtocol)
	}
	return line[:n-2], nil
}
