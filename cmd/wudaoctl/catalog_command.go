package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/wudao/internal/domain/catalog"
)

type catalogFlags struct {
	search    string
	tags      []string
	minRating float64
	priceMin  float64
	priceMax  float64
	sort      string
	level     string
}

func (f *catalogFlags) register(cmd *cobra.Command, withLevel bool) {
	fs := cmd.Flags()
	fs.StringVarP(&f.search, "query", "q", "", "Search name and description")
	fs.StringSliceVarP(&f.tags, "tag", "t", nil, "Match any of these tags (repeatable)")
	fs.Float64Var(&f.minRating, "min-rating", 0, "Minimum rating, 0 disables")
	fs.Float64Var(&f.priceMin, "price-min", -1, "Lower price bound")
	fs.Float64Var(&f.priceMax, "price-max", -1, "Upper price bound")
	fs.StringVarP(&f.sort, "sort", "s", "", "Sort key: rating, price-asc, price-desc, popular")
	if withLevel {
		fs.StringVar(&f.level, "level", "", "Course level")
	}
}

func (f *catalogFlags) criteria() (catalog.Criteria, error) {
	sortKey, err := catalog.ParseSortKey(f.sort)
	if err != nil {
		return catalog.Criteria{}, err
	}
	c := catalog.Criteria{
		SearchTerm:   f.search,
		SelectedTags: f.tags,
		MinRating:    f.minRating,
		Sort:         sortKey,
		Level:        f.level,
	}
	if f.priceMin >= 0 || f.priceMax >= 0 {
		r := catalog.PriceRange{Min: math.Max(f.priceMin, 0), Max: math.Inf(1)}
		if f.priceMax >= 0 {
			r.Max = f.priceMax
		}
		c.Price = &r
	}
	return c, c.Validate()
}

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Filter and sort the coach and course catalogs",
	}
	catalogCmd.AddCommand(newCoachesCommand(ctx))
	catalogCmd.AddCommand(newCoursesCommand(ctx))
	return catalogCmd
}

func newCoachesCommand(ctx *commandContext) *cobra.Command {
	var flags catalogFlags
	cmd := &cobra.Command{
		Use:   "coaches",
		Short: "List coaches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			c, err := flags.criteria()
			if err != nil {
				return err
			}
			engine := catalog.NewCoachEngine(catalog.Coaches(), catalog.WithFoldCase(cfg.CatalogFoldCase))
			coaches, err := engine.Apply(c)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(coaches))
			for _, co := range coaches {
				rows = append(rows, []string{
					co.Name, co.Title, strconv.FormatFloat(co.Rating, 'f', 1, 64), strconv.Itoa(co.Reviews),
					strings.Join(co.Specialties, ", "), formatPrice(co.Price),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Title", "Rating", "Reviews", "Specialties", "Price"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%d of %d coaches\n", len(coaches), engine.Len())
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newCoursesCommand(ctx *commandContext) *cobra.Command {
	var flags catalogFlags
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			c, err := flags.criteria()
			if err != nil {
				return err
			}
			engine := catalog.NewCourseEngine(catalog.Courses(), catalog.WithFoldCase(cfg.CatalogFoldCase))
			courses, err := engine.Apply(c)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(courses))
			for _, co := range courses {
				rows = append(rows, []string{
					co.Title, co.Instructor, co.Level, strconv.FormatFloat(co.Rating, 'f', 1, 64),
					strconv.Itoa(co.Students), strings.Join(co.Categories, ", "), formatPrice(co.Price),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Title", "Instructor", "Level", "Rating", "Students", "Categories", "Price"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%d of %d courses\n", len(courses), engine.Len())
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func formatPrice(p float64) string {
	return "¥" + strconv.FormatFloat(p, 'f', 0, 64)
}
