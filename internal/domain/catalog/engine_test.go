package catalog_test

import (
	"errors"
	"math"
	"testing"

	"github.com/goccy/go-json"

	"github.com/okian/wudao/internal/domain/catalog"
	. "github.com/smartystreets/goconvey/convey"
)

func coachNames(cs []catalog.Coach) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func courseIDs(cs []catalog.Course) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestCoachFilters(t *testing.T) {
	Convey("Given the coach catalog rated [4.9, 4.7, 4.8, 4.6]", t, func() {
		e := catalog.NewCoachEngine(catalog.Coaches())

		Convey("A minimum rating of 4.7 keeps exactly three coaches", func() {
			got, err := e.Apply(catalog.Criteria{MinRating: 4.7})
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 3)
			for _, c := range got {
				So(c.Rating, ShouldNotEqual, 4.6)
			}
		})

		Convey("A zero minimum rating disables the filter", func() {
			got, _ := e.Apply(catalog.Criteria{})
			So(coachNames(got), ShouldResemble, []string{"王教练", "李教练", "张教练", "陈教练"})
		})

		Convey("The search term matches name, description or tag substrings", func() {
			got, _ := e.Apply(catalog.Criteria{SearchTerm: "王"})
			So(coachNames(got), ShouldResemble, []string{"王教练"})

			got, _ = e.Apply(catalog.Criteria{SearchTerm: "冠军"})
			So(coachNames(got), ShouldResemble, []string{"王教练", "张教练"})

			got, _ = e.Apply(catalog.Criteria{SearchTerm: "八"})
			So(coachNames(got), ShouldResemble, []string{"王教练", "李教练"})

			got, _ = e.Apply(catalog.Criteria{SearchTerm: "空手道"})
			So(got, ShouldBeEmpty)
		})

		Convey("Selected tags use OR within the criterion", func() {
			got, _ := e.Apply(catalog.Criteria{SelectedTags: []string{"散打", "南拳"}})
			So(coachNames(got), ShouldResemble, []string{"张教练", "陈教练"})
		})

		Convey("Selected tags match whole tags only", func() {
			got, _ := e.Apply(catalog.Criteria{SelectedTags: []string{"太极"}})
			So(got, ShouldBeEmpty)
		})

		Convey("The price range is inclusive", func() {
			got, _ := e.Apply(catalog.Criteria{Price: &catalog.PriceRange{Min: 259, Max: 299}})
			So(coachNames(got), ShouldResemble, []string{"王教练", "李教练", "陈教练"})
		})

		Convey("Criteria combine conjunctively", func() {
			got, _ := e.Apply(catalog.Criteria{
				SearchTerm:   "教练",
				SelectedTags: []string{"太极拳", "散打", "咏春拳"},
				MinRating:    4.7,
				Price:        &catalog.PriceRange{Min: 0, Max: 300},
			})
			So(coachNames(got), ShouldResemble, []string{"王教练"})
		})
	})
}

func TestSorting(t *testing.T) {
	Convey("Given the course catalog", t, func() {
		e := catalog.NewCourseEngine(catalog.Courses())

		Convey("Rating sorts descending and keeps catalog order on ties", func() {
			got, _ := e.Apply(catalog.Criteria{Sort: catalog.SortRating})
			// 1 and 4 tie at 4.9, 2 and 6 tie at 4.7.
			So(courseIDs(got), ShouldResemble, []int{1, 4, 3, 2, 6, 5})
		})

		Convey("Price sorts both ways", func() {
			got, _ := e.Apply(catalog.Criteria{Sort: catalog.SortPriceAsc})
			So(courseIDs(got), ShouldResemble, []int{6, 5, 1, 3, 2, 4})
			got, _ = e.Apply(catalog.Criteria{Sort: catalog.SortPriceDesc})
			So(courseIDs(got), ShouldResemble, []int{4, 2, 3, 1, 5, 6})
		})

		Convey("Popularity sorts by enrolled students", func() {
			got, _ := e.Apply(catalog.Criteria{Sort: catalog.SortPopular})
			So(courseIDs(got), ShouldResemble, []int{1, 3, 5, 2, 6, 4})
		})

		Convey("Level filters courses exactly", func() {
			got, _ := e.Apply(catalog.Criteria{Level: catalog.LevelBeginner, Sort: catalog.SortPriceAsc})
			So(courseIDs(got), ShouldResemble, []int{5, 1, 3})
		})

		Convey("Filtering and sorting never touch the source", func() {
			_, _ = e.Apply(catalog.Criteria{Sort: catalog.SortPriceDesc, MinRating: 4.8})
			So(courseIDs(e.All()), ShouldResemble, []int{1, 2, 3, 4, 5, 6})
		})

		Convey("Repeated application yields identical bytes", func() {
			c := catalog.Criteria{SearchTerm: "实战", Sort: catalog.SortRating}
			a, _ := e.Apply(c)
			b, _ := e.Apply(c)
			ab, _ := json.Marshal(a)
			bb, _ := json.Marshal(b)
			So(string(ab), ShouldEqual, string(bb))
			So(courseIDs(a), ShouldResemble, []int{4, 2})
		})
	})

	Convey("Given entities that all tie on the key", t, func() {
		type item struct{ id, pop int }
		items := []item{{1, 5}, {2, 5}, {3, 9}, {4, 5}, {5, 5}}
		e := catalog.NewEngine("items", items, func(it item) catalog.Fields {
			return catalog.Fields{Popularity: it.pop, Rating: 3, Price: 10}
		})

		for _, key := range []catalog.SortKey{catalog.SortRating, catalog.SortPriceAsc, catalog.SortPriceDesc} {
			got, _ := e.Apply(catalog.Criteria{Sort: key})
			So(got, ShouldResemble, items)
		}
		got, _ := e.Apply(catalog.Criteria{Sort: catalog.SortPopular})
		So(got, ShouldResemble, []item{{3, 9}, {1, 5}, {2, 5}, {4, 5}, {5, 5}})
	})
}

func TestCaseAndNormalization(t *testing.T) {
	Convey("Given latin entities", t, func() {
		type item struct{ name string }
		items := []item{{"Tai Chi Basics"}, {"Café Forms"}}
		fields := func(it item) catalog.Fields { return catalog.Fields{Name: it.name} }

		Convey("Search is case-sensitive by default", func() {
			e := catalog.NewEngine("items", items, fields)
			got, _ := e.Apply(catalog.Criteria{SearchTerm: "tai chi"})
			So(got, ShouldBeEmpty)
			got, _ = e.Apply(catalog.Criteria{SearchTerm: "Tai"})
			So(len(got), ShouldEqual, 1)
		})

		Convey("Folding makes search case-insensitive", func() {
			e := catalog.NewEngine("items", items, fields, catalog.WithFoldCase(true))
			got, _ := e.Apply(catalog.Criteria{SearchTerm: "tai chi"})
			So(len(got), ShouldEqual, 1)
		})

		Convey("Decomposed input matches composed text", func() {
			e := catalog.NewEngine("items", items, fields)
			got, _ := e.Apply(catalog.Criteria{SearchTerm: "Cafe\u0301"})
			So(len(got), ShouldEqual, 1)
		})
	})
}

func TestCriteriaValidation(t *testing.T) {
	Convey("Given invalid criteria", t, func() {
		e := catalog.NewCoachEngine(catalog.Coaches())
		bad := []catalog.Criteria{
			{MinRating: -1},
			{MinRating: 5.5},
			{MinRating: math.NaN()},
			{Price: &catalog.PriceRange{Min: 300, Max: 200}},
			{Price: &catalog.PriceRange{Min: -1, Max: 200}},
			{Sort: "newest"},
		}
		for _, c := range bad {
			_, err := e.Apply(c)
			So(errors.Is(err, catalog.ErrInvalidCriteria), ShouldBeTrue)
		}

		_, err := catalog.ParseSortKey("popular")
		So(err, ShouldBeNil)
	})
}

func TestTags(t *testing.T) {
	Convey("Given the coach catalog", t, func() {
		e := catalog.NewCoachEngine(catalog.Coaches())
		So(e.Tags(), ShouldResemble, []string{"太极拳", "八卦掌", "形意拳", "八极拳", "散打", "搏击", "咏春拳", "南拳"})
		So(e.Len(), ShouldEqual, 4)
		So(e.Name(), ShouldEqual, "coaches")
	})
}
