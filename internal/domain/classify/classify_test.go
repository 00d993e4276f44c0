package classify_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/consolidator/internal/domain/classify"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRiskScheme(t *testing.T) {
	Convey("Given the 3-tier risk scheme", t, func() {
		s := classify.Risk()

		Convey("Then boundaries are inclusive on the upper end", func() {
			So(s.Classify(0).Label, ShouldEqual, classify.TierNormal)
			So(s.Classify(1).Label, ShouldEqual, classify.TierNormal)
			So(s.Classify(1.01).Label, ShouldEqual, classify.TierAttention)
			So(s.Classify(2).Label, ShouldEqual, classify.TierAttention)
			So(s.Classify(2.01).Label, ShouldEqual, classify.TierCritical)
			So(s.Classify(math.Inf(1)).Label, ShouldEqual, classify.TierCritical)
		})

		Convey("Then only the top tier is critical", func() {
			So(s.Classify(2).Critical, ShouldBeFalse)
			So(s.Classify(3).Critical, ShouldBeTrue)
		})
	})
}

func TestMacroScheme(t *testing.T) {
	Convey("Given the 5-tier macro scheme", t, func() {
		s := classify.Macro()
		days := []float64{0, 1, 2, 2.1, 7, 7.1, 14, 14.1, 100}
		want := []string{
			"0 Days", "1 a 2 Dias", "1 a 2 Dias", "3 a 7 Dias", "3 a 7 Dias",
			"8 a 14 Dias", "8 a 14 Dias", "Mais de 15 Dias", "Mais de 15 Dias",
		}

		Convey("Then boundary values classify as documented", func() {
			got := make([]string, 0, len(days))
			for _, d := range days {
				got = append(got, s.Classify(d).Label)
			}
			So(got, ShouldResemble, want)
		})

		Convey("Then labels come in severity order", func() {
			So(s.Labels(), ShouldResemble, []string{"0 Days", "1 a 2 Dias", "3 a 7 Dias", "8 a 14 Dias", "Mais de 15 Dias"})
			So(s.Rank("8 a 14 Dias"), ShouldEqual, 3)
			So(s.Rank("unknown"), ShouldEqual, -1)
		})
	})
}

func TestClassifierMonotonic(t *testing.T) {
	Convey("Given both schemes", t, func() {
		for _, s := range []classify.Scheme{classify.Risk(), classify.Macro()} {
			Convey("Then "+s.Name()+" never lowers risk as aging grows", func() {
				prev := s.Classify(0).Rank
				for d := 0.0; d <= 30; d += 0.05 {
					r := s.Classify(d).Rank
					So(r, ShouldBeGreaterThanOrEqualTo, prev)
					prev = r
				}
			})

			Convey("Then "+s.Name()+" is total, even for out-of-domain input", func() {
				So(s.Classify(-5).Rank, ShouldEqual, 0)
				So(s.Classify(math.NaN()).Rank, ShouldEqual, 0)
			})
		}
	})
}

func TestParseScheme(t *testing.T) {
	Convey("Given scheme names", t, func() {
		s, err := classify.ParseScheme("")
		So(err, ShouldBeNil)
		So(s.Name(), ShouldEqual, classify.SchemeRisk)

		s, err = classify.ParseScheme("MACRO")
		So(err, ShouldBeNil)
		So(s.Name(), ShouldEqual, classify.SchemeMacro)

		_, err = classify.ParseScheme("weekly")
		So(errors.Is(err, classify.ErrUnknownScheme), ShouldBeTrue)
	})
}
