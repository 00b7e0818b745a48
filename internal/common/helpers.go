// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел и сумм.
package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PluralizeCoins возвращает правильную форму слова «коин» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "коин" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "коина" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "коинов" (0, 5-20, 25-30, 100, ...)
func PluralizeCoins(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "коин"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "коина"
	}
	return "коинов"
}

// PluralizeBoosts возвращает правильную форму слова «буст».
func PluralizeBoosts(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "буст"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "буста"
	}
	return "бустов"
}

// FormatCoins форматирует сумму в читабельную строку.
// Пример: FormatCoins(1500) → "1 500 коинов"
func FormatCoins(amount int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(amount), PluralizeCoins(amount))
}

// FormatNumber разделяет разряды числа пробелами: 1234567 → "1 234 567".
// Используется в лидерборде и чеках.
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := strings.Join(parts, " ")
	if neg {
		out = "-" + out
	}
	return out
}
