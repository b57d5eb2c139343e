package freight

import "strings"

// Normalizer canonicalizes free-form country and city names.
type Normalizer interface {
	// Country returns the canonical country code for name.
	Country(name string) string

	// City returns the canonical city name for name.
	City(name string) string
}

// TableNormalizer is a Normalizer backed by static alias tables. Keys are
// matched case-insensitively; unknown countries are upper-cased and unknown
// cities are returned trimmed.
type TableNormalizer struct {
	countries map[string]string
	cities    map[string]string
}

// NewTableNormalizer builds a TableNormalizer from alias → canonical maps.
func NewTableNormalizer(countries, cities map[string]string) *TableNormalizer {
	n := &TableNormalizer{
		countries: make(map[string]string, len(countries)),
		cities:    make(map[string]string, len(cities)),
	}
	for k, v := range countries {
		n.countries[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for k, v := range cities {
		n.cities[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return n
}

// DefaultNormalizer returns a TableNormalizer over the built-in alias tables.
func DefaultNormalizer() *TableNormalizer {
	return NewTableNormalizer(CountryAliases, CityAliases)
}

// Country implements Normalizer.
func (n *TableNormalizer) Country(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if code, ok := n.countries[key]; ok {
		return code
	}
	return strings.ToUpper(key)
}

// City implements Normalizer.
func (n *TableNormalizer) City(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if city, ok := n.cities[key]; ok {
		return city
	}
	return strings.TrimSpace(name)
}

// CountryAliases maps common spellings to ISO 3166-1 alpha-2 codes.
var CountryAliases = map[string]string{
	"美国": "US", "us": "US", "usa": "US", "united states": "US", "america": "US",
	"加拿大": "CA", "ca": "CA", "canada": "CA",
	"英国": "GB", "uk": "GB", "gb": "GB", "united kingdom": "GB", "britain": "GB",
	"澳洲": "AU", "澳大利亚": "AU", "au": "AU", "australia": "AU",
	"新西兰": "NZ", "nz": "NZ", "new zealand": "NZ",
	"德国": "DE", "de": "DE", "germany": "DE",
	"法国": "FR", "fr": "FR", "france": "FR",
	"意大利": "IT", "it": "IT", "italy": "IT",
	"西班牙": "ES", "es": "ES", "spain": "ES",
	"荷兰": "NL", "nl": "NL", "netherlands": "NL",
	"波兰": "PL", "pl": "PL", "poland": "PL",
	"捷克": "CZ", "cz": "CZ", "czech": "CZ", "czech republic": "CZ",
	"奥地利": "AT", "at": "AT", "austria": "AT",
	"芬兰": "FI", "fi": "FI", "finland": "FI",
	"瑞典": "SE", "se": "SE", "sweden": "SE",
	"罗马尼亚": "RO", "ro": "RO", "romania": "RO",
	"比利时": "BE", "belgium": "BE",
	"瑞士": "CH", "switzerland": "CH",
	"挪威": "NO", "norway": "NO",
	"墨西哥": "MX", "mx": "MX", "mexico": "MX",
	"阿鲁巴": "AW", "aruba": "AW",
	"阿联酋": "AE", "uae": "AE", "迪拜": "AE", "dubai": "AE",
	"沙特": "SA", "saudi arabia": "SA",
	"日本": "JP", "japan": "JP",
	"韩国": "KR", "south korea": "KR", "korea": "KR",
}

// CityAliases maps romanized origin and destination city names to their
// canonical spelling.
var CityAliases = map[string]string{
	"shenzhen":  "深圳",
	"guangzhou": "广州",
	"zhongshan": "中山",
	"dongguan":  "东莞",
	"yiwu":      "义乌",
	"ningbo":    "宁波",
	"hangzhou":  "杭州",
	"taizhou":   "台州",
	"shanghai":  "上海",
	"quanzhou":  "泉州",
	"qingdao":   "青岛",
	"perth":     "Perth",
	"sydney":    "Sydney",
	"melbourne": "Melbourne",
	"brisbane":  "Brisbane",
	"toronto":   "Toronto",
	"vancouver": "Vancouver",
	"london":    "London",
}
