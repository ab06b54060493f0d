package pages

import "strconv"

// digitSymbols maps each decimal digit to a fixed visual symbol. Tags are
// built per digit so they stay distinct and readable for tens of ranges.
var digitSymbols = [10]string{"⓪", "①", "②", "③", "④", "⑤", "⑥", "⑦", "⑧", "⑨"}

// TaggedRange pairs a generated visual tag with one range and its pages.
type TaggedRange struct {
	Tag   string          `json:"tag"`
	Range RangeDescriptor `json:"range"`
	Pages []int           `json:"pages"`
}

// GenerateSequentialTags returns count tags for 1-based range indexes:
// each decimal digit of the index maps to its symbol, concatenated in
// position order, so tag 10 is the symbol for '1' followed by '0'.
func GenerateSequentialTags(count int) []string {
	tags := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		tags = append(tags, encodeTag(i))
	}
	return tags
}

func encodeTag(n int) string {
	var tag string
	for _, digit := range strconv.Itoa(n) {
		tag += digitSymbols[digit-'0']
	}
	return tag
}

// GroupTagsWithRanges zips generated tags 1:1 with ranges in input order,
// attaching each range's expanded page list.
func GroupTagsWithRanges(ranges []RangeDescriptor) []TaggedRange {
	tags := GenerateSequentialTags(len(ranges))
	grouped := make([]TaggedRange, 0, len(ranges))
	for i, r := range ranges {
		grouped = append(grouped, TaggedRange{
			Tag:   tags[i],
			Range: r,
			Pages: ExpandRangesToPages([]RangeDescriptor{r}),
		})
	}
	return grouped
}
