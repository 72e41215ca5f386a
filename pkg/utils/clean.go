package utils

import "strings"

// CleanJsonBlock удаляет markdown-обёртку вокруг JSON.
//
// Некоторые модели присылают аргументы инструментов в виде
//
//	```json
//	{"host_name": "Server"}
//	```
//
// Функция возвращает JSON без обёртки; строка без обёртки возвращается как есть.
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	for _, fence := range []string{"```json", "```JSON", "```Json", "```"} {
		if strings.HasPrefix(s, fence) {
			s = strings.TrimPrefix(s, fence)
			break
		}
	}
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}
