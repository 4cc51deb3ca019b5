package scripture

import "strings"

// Book is a canonical book of the Bible
type Book struct {
	Name     string
	Chapters int
}

// Books lists the 66 canonical books in order
var Books = []Book{
	{"Genesis", 50}, {"Exodus", 40}, {"Leviticus", 27}, {"Numbers", 36}, {"Deuteronomy", 34},
	{"Joshua", 24}, {"Judges", 21}, {"Ruth", 4}, {"1 Samuel", 31}, {"2 Samuel", 24},
	{"1 Kings", 22}, {"2 Kings", 25}, {"1 Chronicles", 29}, {"2 Chronicles", 36}, {"Ezra", 10},
	{"Nehemiah", 13}, {"Esther", 10}, {"Job", 42}, {"Psalms", 150}, {"Proverbs", 31},
	{"Ecclesiastes", 12}, {"Song of Solomon", 8}, {"Isaiah", 66}, {"Jeremiah", 52}, {"Lamentations", 5},
	{"Ezekiel", 48}, {"Daniel", 12}, {"Hosea", 14}, {"Joel", 3}, {"Amos", 9},
	{"Obadiah", 1}, {"Jonah", 4}, {"Micah", 7}, {"Nahum", 3}, {"Habakkuk", 3},
	{"Zephaniah", 3}, {"Haggai", 2}, {"Zechariah", 14}, {"Malachi", 4},

	{"Matthew", 28}, {"Mark", 16}, {"Luke", 24}, {"John", 21}, {"Acts", 28},
	{"Romans", 16}, {"1 Corinthians", 16}, {"2 Corinthians", 13}, {"Galatians", 6}, {"Ephesians", 6},
	{"Philippians", 4}, {"Colossians", 4}, {"1 Thessalonians", 5}, {"2 Thessalonians", 3}, {"1 Timothy", 6},
	{"2 Timothy", 4}, {"Titus", 3}, {"Philemon", 1}, {"Hebrews", 13}, {"James", 5},
	{"1 Peter", 5}, {"2 Peter", 3}, {"1 John", 5}, {"2 John", 1}, {"3 John", 1},
	{"Jude", 1}, {"Revelation", 22},
}

// aliases maps alternative spellings, already normalized, to canonical names
var aliases = map[string]string{
	"psalm":              "Psalms",
	"song of songs":      "Song of Solomon",
	"canticles":          "Song of Solomon",
	"revelations":        "Revelation",
	"revelation of john": "Revelation",
	"gen":                "Genesis",
	"ex":                 "Exodus",
	"exod":               "Exodus",
	"lev":                "Leviticus",
	"deut":               "Deuteronomy",
	"ps":                 "Psalms",
	"prov":               "Proverbs",
	"eccl":               "Ecclesiastes",
	"isa":                "Isaiah",
	"jer":                "Jeremiah",
	"ezek":               "Ezekiel",
	"dan":                "Daniel",
	"matt":               "Matthew",
	"mk":                 "Mark",
	"lk":                 "Luke",
	"jn":                 "John",
	"rom":                "Romans",
	"gal":                "Galatians",
	"eph":                "Ephesians",
	"phil":               "Philippians",
	"col":                "Colossians",
	"heb":                "Hebrews",
	"jas":                "James",
	"rev":                "Revelation",
}

var byName = func() map[string]Book {
	m := make(map[string]Book, len(Books)+len(aliases))
	for _, b := range Books {
		m[normalizeName(b.Name)] = b
	}
	for alias, canonical := range aliases {
		m[alias] = m[normalizeName(canonical)]
	}
	return m
}()

// LookupBook resolves a book name or alias case-insensitively
func LookupBook(name string) (Book, bool) {
	b, ok := byName[normalizeName(name)]
	return b, ok
}

// normalizeName lower-cases, drops periods and collapses whitespace, so
// "1  samuel" and "Matt." resolve like "1 Samuel" and "matt"
func normalizeName(name string) string {
	name = strings.ReplaceAll(strings.ToLower(name), ".", "")
	return strings.Join(strings.Fields(name), " ")
}
