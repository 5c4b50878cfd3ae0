package seeder

import (
	"database/sql/driver"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const textAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ "

// Money is a fixed-point amount in cents.
type Money int64

func MoneyFromUnits(units int64) Money {
	return Money(units * 100)
}

func (m Money) String() string {
	sign := ""
	cents := int64(m)
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Value sends the amount as an exact decimal literal.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Generator produces the field values for every table. It is not safe for
// concurrent use.
type Generator struct {
	rand        *rand.Rand
	now         func() time.Time
	nullRatio   float64
	commonRatio float64
}

func NewGenerator(seed int64, nullRatio, commonRatio float64, now func() time.Time) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{
		rand:        rand.New(rand.NewSource(seed)),
		now:         now,
		nullRatio:   nullRatio,
		commonRatio: commonRatio,
	}
}

// Text returns letters and spaces, length uniform in [min, max], trimmed.
func (g *Generator) Text(min, max int) string {
	n := min
	if max > min {
		n += g.rand.Intn(max - min + 1)
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = textAlphabet[g.rand.Intn(len(textAlphabet))]
	}
	return strings.TrimSpace(string(b))
}

// MaybeNull replaces v with nil with probability nullRatio.
func (g *Generator) MaybeNull(v any) any {
	if g.rand.Float64() < g.nullRatio {
		return nil
	}
	return v
}

// Common reports whether a low-variance field takes its common value.
func (g *Generator) Common() bool {
	return g.rand.Float64() < g.commonRatio
}

// Chance reports true with probability p.
func (g *Generator) Chance(p float64) bool {
	return g.rand.Float64() < p
}

// Date returns a moment between startDaysAgo and endDaysAgo days before now.
func (g *Generator) Date(startDaysAgo, endDaysAgo int) time.Time {
	now := g.now()
	start := now.AddDate(0, 0, -startDaysAgo)
	end := now.AddDate(0, 0, -endDaysAgo)
	span := end.Sub(start)
	return start.Add(time.Duration(float64(span) * g.rand.Float64())).Truncate(time.Second)
}

// Money returns an amount uniform in [min, max] units with cent precision.
func (g *Generator) Money(min, max int64) Money {
	lo := min * 100
	hi := max * 100
	return Money(lo + g.rand.Int63n(hi-lo+1))
}

func (g *Generator) Choice(options []string) string {
	return options[g.rand.Intn(len(options))]
}

// Pick samples a parent id uniformly, with replacement.
func (g *Generator) Pick(ids *IDs) int64 {
	return ids.At(g.rand.Intn(ids.Len()))
}

var (
	firstNamesDocente = []string{"Ana", "Juan", "Luis", "Marta", "Carolina", "Pedro"}
	lastNamesDocente  = []string{"Gómez", "Pérez", "López", "Torres", "Ruiz"}
	firstNamesAlumno  = []string{"Andrés", "Lucía", "Diego", "Sofía", "Camila", "Miguel"}
	lastNamesAlumno   = []string{"Gómez", "Pérez", "López", "Torres"}
	cities            = []string{"A", "B", "C", "D", "E"}
	sports            = []string{"Voleibol", "Fútbol", "Baloncesto"}
	periods           = []string{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05"}
)

func (g *Generator) docenteName() string {
	return g.Choice(firstNamesDocente) + " " + g.Choice(lastNamesDocente)
}

func (g *Generator) alumnoName() string {
	return g.Choice(firstNamesAlumno) + " " + g.Choice(lastNamesAlumno)
}
