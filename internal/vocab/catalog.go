package vocab

import (
	"errors"
	"fmt"
)

var ErrUnsupportedCatalog = errors.New("unsupported vocabulary size")

// Catalog describes a vocabulary: BaseSlots random vectors are generated,
// slot i is named Names[i] (unnamed slots are dropped), Zero names are
// replaced by the zero vector, and Derivations are appended afterwards.
type Catalog struct {
	Name        string
	BaseSlots   int
	Names       []string
	Zero        []string
	Derivations []Derivation
}

// CatalogFor returns the built-in catalog with the given number of base words.
func CatalogFor(numwords int) (Catalog, error) {
	switch numwords {
	case 80:
		return Catalog80(), nil
	case 50:
		return Catalog50(), nil
	case 20:
		return Catalog20(), nil
	default:
		return Catalog{}, fmt.Errorf("%w: %d", ErrUnsupportedCatalog, numwords)
	}
}

func Catalog80() Catalog {
	util := []string{"null"}
	attributes := []string{
		"shape", "number", "linestroke", "angle", "length", "width", "location",
		"shading", "existence", "linetype", "radialpos", "portion", "skew", "misc",
	}
	values := []string{
		// generic
		"present", "rubbish", "abstract1", "abstract2", "abstract3",
		// number
		"one", "plusone",
		// angle
		"0deg", "plus45deg",
		// shape
		"circle", "square", "diamond", "dot", "triangle", "cross", "X", "rectangle", "hexagon", "line",
		// linestroke
		"normal", "dashed", "bold",
		// linetype
		"straight", "curved", "wavy",
		// length, width
		"short", "longer",
		// location
		"NW", "moveE", "moveS",
		// shading
		"none", "solid", "lefthatch", "righthatch", "crosshatch", "vertical", "horizontal", "dots",
		// radial position
		"inner", "moveout",
		// portion
		"lefthalf", "righthalf", "tophalf", "bottomhalf",
		// skew
		"left", "right",
	}

	names := append(append(append([]string{}, util...), attributes...), values...)

	var derivs []Derivation
	derivs = append(derivs, Chain("one", "plusone", "two", "three", "four", "five", "six")...)
	derivs = append(derivs, Chain("0deg", "plus45deg", "45deg", "90deg", "135deg", "180deg", "225deg", "270deg", "315deg")...)
	derivs = append(derivs,
		Bind("N", "NW", "moveE"),
		Bind("NE", "N", "moveE"),
		Bind("W", "NW", "moveS"),
		Bind("C", "W", "moveE"),
		Bind("E", "C", "moveE"),
		Bind("SW", "W", "moveS"),
		Bind("S", "SW", "moveE"),
		Bind("SE", "S", "moveE"),
	)
	derivs = append(derivs, Chain("short", "longer", "medium", "long")...)
	derivs = append(derivs, Chain("inner", "moveout", "middle", "outer")...)
	derivs = append(derivs,
		Bind("uptriangle", "triangle", "90deg"),
		Bind("downtriangle", "triangle", "270deg"),
		Derivation{
			Name:      "whole",
			Op:        OpBundle,
			Operands:  []string{"bottomhalf", "tophalf", "lefthalf", "righthalf"},
			Normalize: true,
		},
	)

	return Catalog{
		Name:        "rpm80",
		BaseSlots:   80,
		Names:       names,
		Zero:        []string{"null"},
		Derivations: derivs,
	}
}

func Catalog50() Catalog {
	names := make([]string, 50)
	for i, name := range []string{
		"shape", "number", "linestroke", "angle", "length", "rpos", "hpos", "vpos",
		"shading", "existence", "linetype", "width",
		"present", "null", "rubbish",
		"zero", "one", "plusone",
		"0deg", "plus45deg",
		"circle", "square", "diamond", "dot", "triangle", "cross", "X", "rectangle",
		"normal", "dashed", "bold",
		"straight", "curved", "wavy",
	} {
		names[i] = name
	}
	// slot 34 is unused
	for i, name := range []string{
		"short", "longer",
		"rinner", "hleft", "vbottom", "moveout", "moveright", "moveup",
		"none", "solid", "lefthatch", "righthatch", "crosshatch", "vertical", "horizontal",
	} {
		names[35+i] = name
	}

	var derivs []Derivation
	derivs = append(derivs, Chain("one", "plusone", "two", "three", "four")...)
	derivs = append(derivs, Chain("0deg", "plus45deg", "45deg", "90deg", "135deg", "180deg", "225deg", "270deg", "315deg")...)
	derivs = append(derivs, Chain("rinner", "moveout", "rmiddle", "router")...)
	derivs = append(derivs, Chain("hleft", "moveright", "hmiddle", "hright")...)
	derivs = append(derivs, Chain("vbottom", "moveup", "vmiddle", "vtop")...)
	derivs = append(derivs, Chain("short", "longer", "medium", "long")...)

	return Catalog{Name: "rpm50", BaseSlots: 50, Names: names, Derivations: derivs}
}

func Catalog20() Catalog {
	names := make([]string, 20)
	copy(names, []string{"shape", "number", "size", "orientation", "position"})
	// slots 5-7 and 14 are unused
	copy(names[8:], []string{"zero", "one", "plusone", "horizontal", "vertical", "oblique"})
	copy(names[15:], []string{"circle", "square", "diamond", "triangle", "rubbish"})

	return Catalog{
		Name:        "rpm20",
		BaseSlots:   20,
		Names:       names,
		Derivations: Chain("one", "plusone", "two", "three", "four"),
	}
}
