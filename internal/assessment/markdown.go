package assessment

import (
	"fmt"
	"strconv"
	"strings"
)

// ToMarkdown renders a for export and clipboard copy. Answers, explanations
// and rubrics are included only when withAnswers is set.
func ToMarkdown(a Assessment, withAnswers bool) string {
	return Prepare(a).Markdown(withAnswers)
}

// Markdown renders the prepared assessment.
func (p Prepared) Markdown(withAnswers bool) string {
	a := p.Assessment
	var b strings.Builder

	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = "Assessment"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	var meta []string
	if a.Type != "" {
		meta = append(meta, "**Type:** "+humanize(a.Type))
	}
	if a.TotalPoints > 0 {
		meta = append(meta, "**Total points:** "+formatPoints(a.TotalPoints))
	}
	if a.EstimatedDurationMinutes > 0 {
		meta = append(meta, fmt.Sprintf("**Duration:** %d min", a.EstimatedDurationMinutes))
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, " · "))
		b.WriteString("\n\n")
	}
	if instr := strings.TrimSpace(a.GeneralInstructions); instr != "" {
		fmt.Fprintf(&b, "%s\n\n", instr)
	}

	number := 0
	for si, section := range a.Sections {
		heading := strings.TrimSpace(section.Title)
		if heading == "" {
			heading = section.Type.Label()
		}
		fmt.Fprintf(&b, "## %s\n\n", heading)
		if instr := strings.TrimSpace(section.Instructions); instr != "" {
			fmt.Fprintf(&b, "_%s_\n\n", instr)
		}
		for qi, q := range section.Questions {
			number++
			writeQuestion(&b, number, q, p.Rubric(si, qi), withAnswers)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeQuestion(b *strings.Builder, number int, q Question, rubric Rubric, withAnswers bool) {
	fmt.Fprintf(b, "**%d.** %s", number, strings.TrimSpace(q.Text))
	var tags []string
	if q.Points > 0 {
		tags = append(tags, formatPoints(q.Points)+" pts")
	}
	if q.Difficulty != "" {
		tags = append(tags, q.Difficulty.Label())
	}
	if len(tags) > 0 {
		fmt.Fprintf(b, " _(%s)_", strings.Join(tags, ", "))
	}
	b.WriteString("\n\n")

	for _, opt := range q.Options {
		marker := " "
		if withAnswers && opt.IsCorrect {
			marker = "x"
		}
		fmt.Fprintf(b, "- [%s] %s. %s\n", marker, opt.Label, opt.Text)
	}
	if len(q.Options) > 0 {
		b.WriteString("\n")
	}

	if !withAnswers {
		return
	}
	if q.CorrectAnswer != "" {
		fmt.Fprintf(b, "> **Answer:** %s\n", q.CorrectAnswer)
	} else if labels := q.CorrectOptions(); len(labels) > 0 {
		fmt.Fprintf(b, "> **Answer:** %s\n", strings.Join(labels, ", "))
	}
	if q.Explanation != "" {
		fmt.Fprintf(b, "> **Explanation:** %s\n", q.Explanation)
	}
	if len(q.KeyPoints) > 0 {
		b.WriteString("> **Key points:**\n")
		for _, kp := range q.KeyPoints {
			fmt.Fprintf(b, "> - %s\n", kp)
		}
	}
	writeRubric(b, rubric)
	b.WriteString("\n")
}

func writeRubric(b *strings.Builder, r Rubric) {
	switch r.Kind {
	case RubricStructured, RubricGeneric:
		b.WriteString("> **Rubric:**\n")
		for _, item := range r.ListItems() {
			fmt.Fprintf(b, "> - %s\n", item)
		}
		if badges := r.Badges(); len(badges) > 0 {
			wrapped := make([]string, len(badges))
			for i, badge := range badges {
				wrapped[i] = "`" + badge + "`"
			}
			fmt.Fprintf(b, "> %s\n", strings.Join(wrapped, " "))
		}
	case RubricRaw:
		fmt.Fprintf(b, "> **Rubric:** %s\n", r.Text)
	}
}

func formatPoints(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
