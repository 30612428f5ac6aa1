package resp

import "errors"

// Сигилы типов RESP-ответа (первый байт строки).
const (
	sigilStatus  = '+' // +<text>\r\n
	sigilError   = '-' // -<text>\r\n
	sigilInteger = ':' // :<number>\r\n
	sigilBulk    = '$' // $<length>\r\n<bytes>\r\n
	sigilArray   = '*' // *<count>\r\n<reply>...
)

// ErrProtocol означает, что полученные байты не разбираются как RESP-ответ.
var ErrProtocol = errors.New("resp: protocol error")

// Kind определяет вариант ответа.
type Kind byte

const (
	KindStatus  Kind = Kind(sigilStatus)
	KindError   Kind = Kind(sigilError)
	KindInteger Kind = Kind(sigilInteger)
	KindBulk    Kind = Kind(sigilBulk)
	KindArray   Kind = Kind(sigilArray)
)

// Reply хранит размеченный RESP-ответ. Ядру нужны только Status и
// Error, остальные варианты разбираются полностью ради совместимости.
type Reply struct {
	Kind Kind
	Text string  // Status, Error
	Int  int64   // Integer
	Bulk []byte  // Bulk (nil при Null)
	Null bool    // $-1 или *-1
	Arr  []Reply // Array
}

// IsStatus возвращает true для успешного статус-ответа.
func (r Reply) IsStatus() bool { return r.Kind == KindStatus }

// IsError возвращает true для ошибки, присланной сервером.
func (r Reply) IsError() bool { return r.Kind == KindError }

// String возвращает текстовое представление ответа для диагностики.
func (r Reply) String() string {
	switch r.Kind {
	case KindStatus:
		return "+" + r.Text
	case KindError:
		return "-" + r.Text
	case KindInteger:
		return "integer reply"
	case KindBulk:
		if r.Null {
			return "null bulk reply"
		}
		return "bulk reply"
	case KindArray:
		if r.Null {
			return "null array reply"
		}
		return "array reply"
	default:
		return "unknown reply"
	}
}
