package domain

import (
	"fmt"
	"strings"
)

// Измерение листинга
type Dimension string

const (
	DimStatus  Dimension = "status"
	DimGenre   Dimension = "genre"
	DimDecade  Dimension = "decade"
	DimCountry Dimension = "country"
)

// Версии ключей по измерениям
const (
	VersionStatus  = 1
	VersionGenre   = 7
	VersionDecade  = 2
	VersionCountry = 2
)

// Category — одна ось листинга с канонической сортировкой.
type Category struct {
	Slug      string
	Dimension Dimension
	Label     string
	Filter    Predicate
	Order     SortOrder
	Version   int
	// Статус, для которого куратор может задать префикс (пусто — не курируется).
	Status Status
	// Допускается ли вычисление списка на лету при промахе (read-through).
	ReadThrough bool
	// Для стран: код снят с карты мира.
	Legacy bool
	// Для стран: ISO/исторический код.
	Code string
}

func (c Category) ListKey() string  { return CacheKeyList(c.Slug, c.Version) }
func (c Category) CountKey() string { return CacheKeyCount(c.Slug, c.Version) }

func (c Category) CuratedKey() string { return CacheKeyCurated(c.Slug, c.Version) }

func (c Category) TailCountKey(prefix []MovieID) string {
	return CacheKeyTailCount(c.Slug, c.Version, prefix)
}

func (c Category) Curatable() bool { return c.Status != "" }

type genreDef struct{ slug, name string }

// Имена жанров — как их отдаёт провайдер метаданных.
var genres = []genreDef{
	{"acao", "Ação"},
	{"aventura", "Aventura"},
	{"comedia", "Comédia"},
	{"drama", "Drama"},
	{"ficcao-cientifica", "Ficção científica"},
	{"terror", "Terror"},
	{"romance", "Romance"},
	{"suspense", "Thriller"},
	{"animacao", "Animação"},
	{"crime", "Crime"},
	{"documentario", "Documentário"},
	{"familia", "Família"},
	{"fantasia", "Fantasia"},
	{"guerra", "Guerra"},
	{"historia", "História"},
	{"misterio", "Mistério"},
	{"musical", "Música"},
	{"western", "Faroeste"},
}

type decadeDef struct {
	slug     string
	from, to int
	label    string
}

var decades = []decadeDef{
	{"2020s", 2020, 2029, "Anos 2020"},
	{"2010s", 2010, 2019, "Anos 2010"},
	{"2000s", 2000, 2009, "Anos 2000"},
	{"1990s", 1990, 1999, "Anos 1990"},
	{"1980s", 1980, 1989, "Anos 1980"},
	{"1970s", 1970, 1979, "Anos 1970"},
	{"1960s", 1960, 1969, "Anos 1960"},
	{"1950s", 1950, 1959, "Anos 1950"},
	{"1940s", 1940, 1949, "Anos 1940"},
	{"1930s", 1930, 1939, "Anos 1930"},
	{"1920s", 1920, 1929, "Anos 1920"},
	{"pre-1920", 1850, 1919, "Antes de 1920"},
}

type countryDef struct {
	code, name, label string
	legacy            bool
}

var countries = []countryDef{
	// América do Sul
	{"BR", "Brazil", "Brasil", false},
	{"AR", "Argentina", "Argentina", false},
	{"CL", "Chile", "Chile", false},
	{"CO", "Colombia", "Colômbia", false},
	{"PE", "Peru", "Peru", false},
	{"UY", "Uruguay", "Uruguai", false},
	{"VE", "Venezuela", "Venezuela", false},
	// América do Norte
	{"US", "United States of America", "Estados Unidos", false},
	{"CA", "Canada", "Canadá", false},
	{"MX", "Mexico", "México", false},
	// Europa
	{"GB", "United Kingdom", "Reino Unido", false},
	{"FR", "France", "França", false},
	{"DE", "Germany", "Alemanha", false},
	{"IT", "Italy", "Itália", false},
	{"ES", "Spain", "Espanha", false},
	{"PT", "Portugal", "Portugal", false},
	{"NL", "Netherlands", "Holanda", false},
	{"BE", "Belgium", "Bélgica", false},
	{"CH", "Switzerland", "Suíça", false},
	{"AT", "Austria", "Áustria", false},
	{"IE", "Ireland", "Irlanda", false},
	{"SE", "Sweden", "Suécia", false},
	{"NO", "Norway", "Noruega", false},
	{"DK", "Denmark", "Dinamarca", false},
	{"FI", "Finland", "Finlândia", false},
	{"IS", "Iceland", "Islândia", false},
	{"RU", "Russia", "Rússia", false},
	{"PL", "Poland", "Polônia", false},
	{"CZ", "Czech Republic", "República Tcheca", false},
	{"HU", "Hungary", "Hungria", false},
	{"RO", "Romania", "Romênia", false},
	{"UA", "Ukraine", "Ucrânia", false},
	// Ásia
	{"JP", "Japan", "Japão", false},
	{"KR", "South Korea", "Coreia do Sul", false},
	{"CN", "China", "China", false},
	{"IN", "India", "Índia", false},
	{"TH", "Thailand", "Tailândia", false},
	{"HK", "Hong Kong", "Hong Kong", false},
	{"TW", "Taiwan", "Taiwan", false},
	{"SG", "Singapore", "Singapura", false},
	{"ID", "Indonesia", "Indonésia", false},
	{"PH", "Philippines", "Filipinas", false},
	{"MY", "Malaysia", "Malásia", false},
	{"VN", "Vietnam", "Vietnã", false},
	// Oceania
	{"AU", "Australia", "Austrália", false},
	{"NZ", "New Zealand", "Nova Zelândia", false},
	// Oriente Médio
	{"TR", "Turkey", "Turquia", false},
	{"IL", "Israel", "Israel", false},
	{"IR", "Iran", "Irã", false},
	{"SA", "Saudi Arabia", "Arábia Saudita", false},
	{"AE", "United Arab Emirates", "Emirados Árabes", false},
	// África
	{"ZA", "South Africa", "África do Sul", false},
	{"EG", "Egypt", "Egito", false},
	{"MA", "Morocco", "Marrocos", false},
	{"NG", "Nigeria", "Nigéria", false},
	{"KE", "Kenya", "Quênia", false},
	// países extintos
	{"CZE", "Czechoslovakia", "Tchecoslováquia", true},
	{"GDR", "East Germany", "Alemanha Oriental", true},
	{"SU", "Soviet Union", "União Soviética", true},
	{"YU", "Yugoslavia", "Iugoslávia", true},
	{"SAM", "Serbia and Montenegro", "Sérvia e Montenegro", true},
	{"AN", "Netherlands Antilles", "Antilhas Holandesas", true},
}

// Catalog — реестр всех категорий в порядке прогрева.
type Catalog struct {
	all    []Category
	bySlug map[string]Category
}

func NewCatalog(cats ...Category) (*Catalog, error) {
	c := &Catalog{bySlug: make(map[string]Category, len(cats))}
	for _, cat := range cats {
		if cat.Slug == "" {
			return nil, fmt.Errorf("category without slug: %w", ErrBadParams)
		}
		if _, dup := c.bySlug[cat.Slug]; dup {
			return nil, fmt.Errorf("duplicate category %q: %w", cat.Slug, ErrBadParams)
		}
		c.bySlug[cat.Slug] = cat
		c.all = append(c.all, cat)
	}
	return c, nil
}

// DefaultCatalog собирает статусы, жанры, декады и страны (включая исторические).
func DefaultCatalog() *Catalog {
	cats := make([]Category, 0, 3+len(genres)+len(decades)+len(countries))

	cats = append(cats,
		Category{
			Slug: string(StatusUpcoming), Dimension: DimStatus, Label: "Lançamentos",
			Filter: Predicate{Status: StatusUpcoming}, Order: SortReleaseAscPopularity,
			Version: VersionStatus, Status: StatusUpcoming, ReadThrough: true,
		},
		Category{
			Slug: string(StatusInTheaters), Dimension: DimStatus, Label: "Em Cartaz",
			Filter: Predicate{Status: StatusInTheaters}, Order: SortReleaseDescPopularity,
			Version: VersionStatus, Status: StatusInTheaters, ReadThrough: true,
		},
		Category{
			Slug: string(StatusReleased), Dimension: DimStatus, Label: "Lançados",
			Filter: Predicate{Status: StatusReleased}, Order: SortReleaseDescPopularity,
			Version: VersionStatus, Status: StatusReleased, ReadThrough: true,
		},
	)

	for _, g := range genres {
		cats = append(cats, Category{
			Slug: "genre_" + g.slug, Dimension: DimGenre, Label: g.name,
			Filter:  Predicate{Genre: g.name, RequireReleaseDate: true},
			Order:   SortYearDescVotes,
			Version: VersionGenre,
		})
	}
	for _, d := range decades {
		cats = append(cats, Category{
			Slug: "decade_" + d.slug, Dimension: DimDecade, Label: d.label,
			Filter:  Predicate{YearFrom: d.from, YearTo: d.to, RequireReleaseDate: true},
			Order:   SortVotesDescPopularity,
			Version: VersionDecade,
		})
	}
	for _, ct := range countries {
		cats = append(cats, Category{
			Slug: "country_" + ct.code, Dimension: DimCountry, Label: ct.label,
			Filter:  Predicate{Country: ct.name},
			Order:   SortVotesDescPopularity,
			Version: VersionCountry,
			Legacy:  ct.legacy,
			Code:    ct.code,
		})
	}

	c, err := NewCatalog(cats...)
	if err != nil {
		panic(err) // статические таблицы выше
	}
	return c
}

func (c *Catalog) All() []Category { return c.all }

func (c *Catalog) Lookup(slug string) (Category, bool) {
	cat, ok := c.bySlug[slug]
	return cat, ok
}

// Resolve понимает и полный slug ("genre_acao"), и пару измерение/значение из старых маршрутов.
func (c *Catalog) Resolve(dim Dimension, value string) (Category, bool) {
	switch dim {
	case DimStatus:
		return c.Lookup(strings.ReplaceAll(value, "-", "_"))
	case DimGenre:
		return c.Lookup("genre_" + strings.ToLower(value))
	case DimDecade:
		v := strings.ToLower(value)
		if !strings.HasSuffix(v, "s") && !strings.HasPrefix(v, "pre-") {
			v += "s"
		}
		return c.Lookup("decade_" + v)
	case DimCountry:
		return c.Lookup("country_" + strings.ToUpper(value))
	}
	return Category{}, false
}

func (c *Catalog) ByDimension(dim Dimension) []Category {
	var out []Category
	for _, cat := range c.all {
		if cat.Dimension == dim {
			out = append(out, cat)
		}
	}
	return out
}
