package types

import "strings"

// TagSet 有序、去重的标签集合，保留首次出现的顺序
type TagSet []string

func NewTagSet(tags ...string) TagSet {
	set := make(TagSet, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		set = append(set, tag)
	}
	return set
}

func (s TagSet) Contains(tag string) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// ContainsAll 判断 s 是否为 required 的超集
func (s TagSet) ContainsAll(required TagSet) bool {
	for _, t := range required {
		if !s.Contains(t) {
			return false
		}
	}
	return true
}

func (s TagSet) Strings() []string {
	return []string(s)
}
