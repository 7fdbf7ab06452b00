// Package pipeline runs an ordered sequence of content-production
// stages, gating each one behind human review. A stage's producer is
// invoked with a task built from the project idea and the approved
// output of the previous stage; the pipeline suspends while a review is
// pending and resumes from the review's continuation.
package pipeline

import "strings"

// Stage describes one pipeline step.
type Stage struct {
	// Name identifies the stage ("requirements", "prd", "architecture").
	Name string

	// Producer is the id of the registered producer that generates the
	// stage's content.
	Producer string

	// ArtifactType labels the content for filing and revision history
	// ("prd document", "architecture document").
	ArtifactType string

	// TaskTemplate is the producer instruction. {idea} expands to the
	// project idea, {previous} to the approved output of the previous
	// stage.
	TaskTemplate string

	// CreateTickets pushes the approved content to the ticket tracker.
	CreateTickets bool
}

// renderTask expands the stage template. A stage with no template gets
// the idea and previous output verbatim.
func renderTask(st Stage, idea, previous string) string {
	if st.TaskTemplate == "" {
		task := idea
		if previous != "" {
			task += "\n\n## Previous Stage Output\n\n" + previous
		}
		return task
	}
	return strings.NewReplacer(
		"{idea}", idea,
		"{previous}", previous,
	).Replace(st.TaskTemplate)
}
