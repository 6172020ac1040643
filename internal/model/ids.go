package model

import "fmt"

// IDSet hands out collection-unique event ids.
type IDSet map[string]struct{}

// Claim reserves id for the event at index. A taken id is disambiguated
// with an index suffix ("{id}-{index}"), repeated until it is free.
func (s IDSet) Claim(id string, index int) string {
	for {
		if _, taken := s[id]; !taken {
			s[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s-%d", id, index)
	}
}
