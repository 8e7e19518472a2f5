package availability

import (
	"sort"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// subtractRange вычитает block из каждого интервала списка.
// Блок внутри интервала разрезает его на два, частичное перекрытие
// обрезает край, полное перекрытие удаляет интервал целиком.
func subtractRange(ranges []domain.TimeRange, block domain.TimeRange) []domain.TimeRange {
	result := make([]domain.TimeRange, 0, len(ranges))

	for _, r := range ranges {
		if !r.Overlaps(block) {
			result = append(result, r)
			continue
		}

		// Левый остаток до начала блока
		if r.Start.IsBefore(block.Start) {
			result = append(result, domain.TimeRange{Start: r.Start, End: block.Start})
		}

		// Правый остаток после конца блока
		if block.End.IsBefore(r.End) {
			result = append(result, domain.TimeRange{Start: block.End, End: r.End})
		}
	}

	return result
}

// mergeRanges сортирует интервалы и объединяет пересекающиеся и смежные.
// Результат - непересекающийся отсортированный список.
func mergeRanges(ranges []domain.TimeRange) []domain.TimeRange {
	if len(ranges) == 0 {
		return []domain.TimeRange{}
	}

	sorted := make([]domain.TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.IsBefore(sorted[j].Start)
	})

	merged := []domain.TimeRange{sorted[0]}

	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start.IsAfter(last.End) {
			merged = append(merged, r)
			continue
		}
		if last.End.IsBefore(r.End) {
			last.End = r.End
		}
	}

	return merged
}
