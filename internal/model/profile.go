package model

// Option declares one user-facing toggle for a profile. When enabled it
// contributes exactly one instruction clause and one output-field clause to
// the assembled prompt, in declaration order.
type Option struct {
	Key         string
	Instruction string
	OutputField string
}

// Profile fixes the label list and option set for one workflow variant.
type Profile struct {
	Name    string
	Kind    Kind
	Labels  []string
	Options []Option
}

// OptionKeys returns the declared option keys in order.
func (p Profile) OptionKeys() []string {
	keys := make([]string, len(p.Options))
	for i, opt := range p.Options {
		keys[i] = opt.Key
	}
	return keys
}

// InsectProfile is the classification variant: categorize the insect visible
// in an uploaded photo.
var InsectProfile = Profile{
	Name: "insect",
	Kind: KindClassify,
	Labels: []string{
		"Bumblebees",
		"Solitary bees",
		"Honeybee",
		"Wasps",
		"Hoverflies",
		"Butterflies & Moths",
		"Beetles (>3mm)",
		"Small insects (<3mm)",
		"Other insects",
		"Other flies",
	},
	Options: []Option{
		{
			Key:         "detailed_description",
			Instruction: "Provide a detailed description of the insect, focusing on shapes and colors visible in the image.",
			OutputField: "- Detailed Description: [shapes, colors, and distinctive features]",
		},
		{
			Key:         "plant_classification",
			Instruction: "If there are any plants visible in the image, identify them to the best of your ability.",
			OutputField: "- Plant Identification: [names of visible plants, if any]",
		},
		{
			Key:         "taxonomy",
			Instruction: "Provide taxonomic classification of the insect to the most specific level possible (Order, Family, Genus, Species).",
			OutputField: "- Taxonomy: [Order, Family, Genus, Species where possible]",
		},
	},
}

// BuildingProfile is the restoration variant: describe a derelict building
// and synthesize a restored rendition of it.
var BuildingProfile = Profile{
	Name: "building",
	Kind: KindRestore,
	Labels: []string{
		"Victorian terrace",
		"Georgian townhouse",
		"Industrial warehouse",
		"Art Deco cinema",
		"Rural farmhouse",
		"Mid-century civic building",
		"Other structure",
	},
	Options: []Option{
		{
			Key:         "period_accuracy",
			Instruction: "Restore the building using materials and detailing faithful to its original architectural period.",
			OutputField: "- Period Notes: [materials and detailing used in the restoration]",
		},
		{
			Key:         "landscaping",
			Instruction: "Include sympathetic landscaping and street context around the restored building.",
			OutputField: "- Landscaping: [planting and surroundings added]",
		},
		{
			Key:         "structural_report",
			Instruction: "Summarize the visible structural condition of the building before restoration.",
			OutputField: "- Structural Condition: [visible damage and decay]",
		},
	},
}

// ProfileByName looks up a built-in profile. Returns false for unknown names.
func ProfileByName(name string) (Profile, bool) {
	switch name {
	case InsectProfile.Name:
		return InsectProfile, true
	case BuildingProfile.Name:
		return BuildingProfile, true
	default:
		return Profile{}, false
	}
}
