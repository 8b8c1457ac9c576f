package exchange

import "sort"

// CommonSymbols возвращает отсортированное пересечение списков инструментов
// двух площадок. Торговать имеет смысл только тем, что котируется на обеих.
func CommonSymbols(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}

	var common []string
	seen := make(map[string]bool)
	for _, s := range b {
		if set[s] && !seen[s] {
			common = append(common, s)
			seen[s] = true
		}
	}
	sort.Strings(common)
	return common
}
