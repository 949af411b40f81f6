package models

// BorderStyleNames lists the border style names by their numeric index
// in the file format.
var BorderStyleNames = map[int]string{
	1:  "thin",
	2:  "medium",
	3:  "dashed",
	4:  "dotted",
	5:  "thick",
	6:  "double",
	7:  "hair",
	8:  "mediumDashed",
	9:  "dashDot",
	10: "mediumDashDot",
	11: "dashDotDot",
	12: "mediumDashDotDot",
	13: "slantDashDot",
}

// BorderStyleIndexes is the inverse of BorderStyleNames.
var BorderStyleIndexes = inverse(BorderStyleNames)

// FillPatternNames lists the fill pattern names by their numeric index
// in the file format.
var FillPatternNames = map[int]string{
	1:  "solid",
	2:  "mediumGray",
	3:  "darkGray",
	4:  "lightGray",
	5:  "darkHorizontal",
	6:  "darkVertical",
	7:  "darkDown",
	8:  "darkUp",
	9:  "darkGrid",
	10: "darkTrellis",
	11: "lightHorizontal",
	12: "lightVertical",
	13: "lightDown",
	14: "lightUp",
	15: "lightGrid",
	16: "lightTrellis",
	17: "gray125",
	18: "gray0625",
}

// FillPatternIndexes is the inverse of FillPatternNames.
var FillPatternIndexes = inverse(FillPatternNames)

func inverse(m map[int]string) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
