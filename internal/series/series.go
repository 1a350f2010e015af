package series

import "strings"

// Registry maps canonical series keys to the date codes of their member
// documents. The archive's series are fixed editorial groupings, so the
// canon ships with the binary; callers may extend it at construction.
type Registry struct {
	keys   []string // insertion order, so Detect is deterministic
	groups map[string][]string
	byDoc  map[string][]string
}

// SevenSealsCanon is the 1963 Seven Seals series in preaching order.
var SevenSealsCanon = []string{
	"63-0317E", // The Breach Between The Church Ages And The Seven Seals
	"63-0317M", // God Hiding Himself In Simplicity, Then Revealing Himself In The Same
	"63-0318",  // The First Seal
	"63-0319",  // The Second Seal
	"63-0320",  // The Third Seal
	"63-0321",  // The Fourth Seal
	"63-0322",  // The Fifth Seal
	"63-0323",  // The Sixth Seal
	"63-0324E", // The Seventh Seal
	"63-0324M", // Questions And Answers On The Seals
}

func NewRegistry() *Registry {
	r := &Registry{
		groups: map[string][]string{},
		byDoc:  map[string][]string{},
	}
	r.Add("seven seals", SevenSealsCanon)
	return r
}

// Add registers a series under its canonical key.
func (r *Registry) Add(key string, documentIDs []string) {
	key = normalize(key)
	if _, ok := r.groups[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.groups[key] = append([]string(nil), documentIDs...)
	for _, id := range documentIDs {
		r.byDoc[id] = append(r.byDoc[id], key)
	}
}

// TagsFor returns the canonical series keys a document belongs to.
func (r *Registry) TagsFor(documentID string) []string {
	return r.byDoc[documentID]
}

// Members returns the date codes belonging to a series key.
func (r *Registry) Members(key string) []string {
	return r.groups[normalize(key)]
}

// Detect returns the first series whose key appears in the query text.
func (r *Registry) Detect(query string) (string, bool) {
	q := normalize(query)
	for _, key := range r.keys {
		if strings.Contains(q, key) {
			return key, true
		}
	}
	return "", false
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
