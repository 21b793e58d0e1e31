package store_test

import (
	"testing"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeProperty(id string, opts ...func(*domain.Property)) domain.Property {
	p := domain.Property{
		ID:          id,
		Title:       "Casa no Lago",
		Location:    "Lago Sul",
		Price:       1000000,
		Type:        domain.PropertyTypeSale,
		Beds:        3,
		Baths:       2,
		Area:        200,
		Image:       "img.jpg",
		Description: "Teste",
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func withType(t domain.PropertyType) func(*domain.Property) {
	return func(p *domain.Property) { p.Type = t }
}

func withText(title, location string) func(*domain.Property) {
	return func(p *domain.Property) {
		p.Title = title
		p.Location = location
	}
}

func ids(ps []domain.Property) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestNew(t *testing.T) {
	s := store.New()
	assert.Empty(t, s.Properties())
	assert.Equal(t, domain.FilterAll, s.Filter())
	assert.Equal(t, "", s.Search())
	assert.Empty(t, s.FilteredProperties())
}

func TestSetProperties(t *testing.T) {
	t.Run("ReplacesSnapshot", func(t *testing.T) {
		s := store.New()
		s.SetProperties([]domain.Property{makeProperty("1"), makeProperty("2")})

		list := []domain.Property{makeProperty("3")}
		s.SetProperties(list)

		require.Len(t, s.Properties(), 1)
		assert.Equal(t, list, s.Properties())
	})

	t.Run("EmptyListClears", func(t *testing.T) {
		s := store.New()
		s.SetProperties([]domain.Property{makeProperty("1")})
		s.SetProperties([]domain.Property{})
		assert.Empty(t, s.Properties())
		assert.Empty(t, s.FilteredProperties())
	})

	t.Run("ReturnsSameBackingArray", func(t *testing.T) {
		s := store.New()
		list := []domain.Property{makeProperty("1")}
		s.SetProperties(list)
		assert.Same(t, &list[0], &s.Properties()[0])
	})

	t.Run("DuplicatesPassThrough", func(t *testing.T) {
		s := store.New()
		s.SetProperties([]domain.Property{makeProperty("1"), makeProperty("1")})
		assert.Equal(t, []string{"1", "1"}, ids(s.FilteredProperties()))
	})

	t.Run("ViewParamsSurviveReplace", func(t *testing.T) {
		s := store.New()
		s.SetFilter("rent")
		s.SetSearch("lago")
		s.SetProperties([]domain.Property{makeProperty("1")})
		assert.Equal(t, domain.FilterRent, s.Filter())
		assert.Equal(t, "lago", s.Search())
	})
}

func TestFilteredPropertiesByType(t *testing.T) {
	s := store.New()
	s.SetProperties([]domain.Property{
		makeProperty("1", withType(domain.PropertyTypeSale)),
		makeProperty("2", withType(domain.PropertyTypeRent)),
		makeProperty("3", withType(domain.PropertyTypeSale)),
	})

	s.SetFilter("sale")
	assert.Equal(t, []string{"1", "3"}, ids(s.FilteredProperties()))

	s.SetFilter("rent")
	assert.Equal(t, []string{"2"}, ids(s.FilteredProperties()))

	s.SetFilter("all")
	assert.Equal(t, []string{"1", "2", "3"}, ids(s.FilteredProperties()))
}

func TestSetFilterFallback(t *testing.T) {
	for _, v := range []any{"invalido", 7, nil, "Sale", struct{}{}} {
		s := store.New()
		s.SetProperties([]domain.Property{
			makeProperty("1", withType(domain.PropertyTypeSale)),
			makeProperty("2", withType(domain.PropertyTypeRent)),
		})
		s.SetFilter("rent")

		s.SetFilter(v)

		assert.Equal(t, domain.FilterAll, s.Filter(), "input %#v", v)
		assert.Len(t, s.FilteredProperties(), 2, "input %#v", v)
	}
}

func TestFilteredPropertiesSearch(t *testing.T) {
	t.Run("TitleOrLocationCaseAndAccentInsensitive", func(t *testing.T) {
		s := store.New()
		s.SetProperties([]domain.Property{
			makeProperty("1", withText("Casa Lago", "Lago Sul")),
		})

		for _, q := range []string{"lago", "LAGO", "Lágo", "sul", "casa l"} {
			s.SetSearch(q)
			assert.Equal(t, []string{"1"}, ids(s.FilteredProperties()), "search %q", q)
		}

		s.SetSearch("zzz")
		assert.Empty(t, s.FilteredProperties())
	})

	t.Run("MatchesLocationOnly", func(t *testing.T) {
		s := store.New()
		s.SetProperties([]domain.Property{
			makeProperty("1", withText("Apartamento", "Águas Claras")),
		})
		s.SetSearch("aguas")
		assert.Equal(t, []string{"1"}, ids(s.FilteredProperties()))
	})

	t.Run("SearchIsStoredVerbatim", func(t *testing.T) {
		s := store.New()
		s.SetSearch("  Lágo ")
		assert.Equal(t, "  Lágo ", s.Search())
	})

	t.Run("EmptyFieldsOnlyMatchEmptySearch", func(t *testing.T) {
		s := store.New()
		s.SetProperties([]domain.Property{makeProperty("1", withText("", ""))})
		assert.Len(t, s.FilteredProperties(), 1)
		s.SetSearch("a")
		assert.Empty(t, s.FilteredProperties())
	})
}

func TestFilteredPropertiesCombined(t *testing.T) {
	s := store.New()
	s.SetProperties([]domain.Property{
		makeProperty("1",
			withType(domain.PropertyTypeSale),
			withText("Apartamento Centro", "Plano Piloto"),
		),
		makeProperty("2",
			withType(domain.PropertyTypeRent),
			withText("Casa Lago", "Lago Sul"),
		),
	})

	s.SetFilter("all")
	s.SetSearch("lago")
	assert.Equal(t, []string{"2"}, ids(s.FilteredProperties()))

	s.SetFilter("sale")
	assert.Empty(t, s.FilteredProperties())

	s.SetSearch("")
	assert.Equal(t, []string{"1"}, ids(s.FilteredProperties()))
}

func TestFilteredPropertiesHasNoSideEffects(t *testing.T) {
	s := store.New()
	list := []domain.Property{
		makeProperty("1", withType(domain.PropertyTypeRent)),
		makeProperty("2", withType(domain.PropertyTypeSale)),
		makeProperty("3", withType(domain.PropertyTypeRent)),
	}
	s.SetProperties(list)
	s.SetFilter("rent")
	s.SetSearch("LAGO")

	first := s.FilteredProperties()
	second := s.FilteredProperties()

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"1", "3"}, ids(first))
	assert.Equal(t, []string{"1", "2", "3"}, ids(s.Properties()))
	assert.Equal(t, domain.FilterRent, s.Filter())
	assert.Equal(t, "LAGO", s.Search())

	first[0].Title = "changed"
	assert.Equal(t, "Casa no Lago", s.Properties()[0].Title)
}

func TestQuery(t *testing.T) {
	snapshot := []domain.Property{
		makeProperty("1", withType(domain.PropertyTypeSale), withText("Cobertura", "Asa Norte")),
		makeProperty("2", withType(domain.PropertyTypeRent), withText("Kitnet", "Asa Sul")),
		makeProperty("3", withType(domain.PropertyType("leilão")), withText("Lote", "Asa Sul")),
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(store.Query(snapshot, domain.FilterAll, "asa")))
	assert.Equal(t, []string{"2", "3"}, ids(store.Query(snapshot, domain.FilterAll, "SUL")))
	assert.Equal(t, []string{"2"}, ids(store.Query(snapshot, domain.FilterRent, "sul")))
	assert.Empty(t, store.Query(nil, domain.FilterAll, ""))
}
