package zabbix

import (
	"strconv"
	"strings"
)

// HistoryType — код типа истории Zabbix (параметр "history" в history.get).
type HistoryType int

const (
	HistoryFloat     HistoryType = 0
	HistoryCharacter HistoryType = 1
	HistoryLog       HistoryType = 2
	HistoryInteger   HistoryType = 3
	HistoryText      HistoryType = 4
)

// DefaultHistoryType — тип, который Zabbix использует, если "history" не передан.
const DefaultHistoryType = HistoryInteger

// String возвращает имя типа истории.
func (t HistoryType) String() string {
	switch t {
	case HistoryFloat:
		return "float"
	case HistoryCharacter:
		return "character"
	case HistoryLog:
		return "log"
	case HistoryInteger:
		return "integer"
	case HistoryText:
		return "text"
	default:
		return "history(" + strconv.Itoa(int(t)) + ")"
	}
}

// HistoryDecision — результат выбора типа истории для item.
type HistoryDecision struct {
	Type HistoryType
	// Overridden — тип угадан по lastvalue, а не взят из ответа Zabbix.
	Overridden bool
	// Reported — исходное значение поля "type" из item.get.
	Reported string
}

// DecideHistoryType выбирает тип истории для history.get.
//
// Эвристика: если lastvalue непустой и состоит только из десятичных цифр,
// тип принудительно становится HistoryInteger независимо от того, что
// вернул Zabbix. Иначе используется код из поля "type"; нечисловой код
// заменяется на DefaultHistoryType.
//
// Эвристика ошибается для чисел, которые Zabbix хранит как float или текст:
// "42" в float-метрике даст запрос к integer-истории и пустой результат.
func DecideHistoryType(item Item) HistoryDecision {
	if isDecimalDigits(item.LastValue) {
		return HistoryDecision{Type: HistoryInteger, Overridden: true, Reported: item.Type}
	}

	code, err := strconv.Atoi(strings.TrimSpace(item.Type))
	if err != nil {
		return HistoryDecision{Type: DefaultHistoryType, Reported: item.Type}
	}
	return HistoryDecision{Type: HistoryType(code), Reported: item.Type}
}

func isDecimalDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
