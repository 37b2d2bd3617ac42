// Package prompt assembles provider-facing instruction strings from a fixed
// task profile and a set of user-toggled options.
package prompt

import (
	"fmt"
	"strings"

	"github.com/specimenworks/fieldlens/internal/model"
)

const classifyTemplate = `You are an expert entomologist specializing in insect identification. Your task is to analyze the provided image and classify the insect(s) visible.

Please categorize the insect into one of these categories:
%s

%s

Format your response as follows:
- Main Category: [the most likely category from the list]
- Confidence: [High, Medium, or Low]
- Description: [brief description of what you see]
%s

IMPORTANT: Just provide the formatted response above with no additional explanation or apology.`

const describeTemplate = `You are an architectural historian. Analyze the provided photograph of a derelict building and describe it precisely.

Identify the building as one of these styles:
%s

%s

Format your response as follows:
- Main Category: [the most likely style from the list]
- Confidence: [High, Medium, or Low]
- Description: [precise description of the building, its condition, and setting]
%s

IMPORTANT: Just provide the formatted response above with no additional explanation or apology.`

const restoreTemplate = `A photorealistic image of the following building, fully restored to pristine condition: %s

%s

Keep the composition, viewpoint, and surroundings of the original photograph.`

// Builder deterministically turns a profile's option declarations into a
// prompt string. Unknown option keys are silently ignored.
type Builder struct {
	profile model.Profile
}

// NewBuilder creates a builder for the given profile.
func NewBuilder(profile model.Profile) *Builder {
	return &Builder{profile: profile}
}

// Profile returns the profile this builder was constructed with.
func (b *Builder) Profile() model.Profile {
	return b.profile
}

// Build assembles the vision prompt for the profile. Each enabled declared
// option contributes exactly one instruction clause and one output-field
// clause, in declaration order regardless of map iteration order.
func (b *Builder) Build(options map[string]bool) string {
	var instructions []string
	var outputFields []string

	for _, opt := range b.profile.Options {
		if options[opt.Key] {
			instructions = append(instructions, opt.Instruction)
			outputFields = append(outputFields, opt.OutputField)
		}
	}

	labels := make([]string, len(b.profile.Labels))
	for i, label := range b.profile.Labels {
		labels[i] = "- " + label
	}

	template := classifyTemplate
	if b.profile.Kind == model.KindRestore {
		template = describeTemplate
	}

	return fmt.Sprintf(template,
		strings.Join(labels, "\n"),
		strings.Join(instructions, "\n"),
		strings.Join(outputFields, "\n"))
}

// BuildRestoration splices a stage-one building description into the image
// synthesis prompt for stage two of the restoration pipeline.
func (b *Builder) BuildRestoration(description string, options map[string]bool) string {
	var instructions []string
	for _, opt := range b.profile.Options {
		if options[opt.Key] {
			instructions = append(instructions, opt.Instruction)
		}
	}

	return fmt.Sprintf(restoreTemplate, strings.TrimSpace(description), strings.Join(instructions, "\n"))
}
