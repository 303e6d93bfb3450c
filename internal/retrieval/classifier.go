package retrieval

import (
	"regexp"

	"askfolio/internal/models"
)

type topicRule struct {
	topic models.Topic
	re    *regexp.Regexp
}

// Keyword groups are kept disjoint; when a question still hits several,
// the earlier group wins.
var topicRules = []topicRule{
	{models.TopicDriving, regexp.MustCompile(`\b(lidar|radar|sensors?|lanes?|autonomous|self-driving|driving|drive|vehicles?|cars?|perception|carla|planner|planning|trajectory|trajectories|kalman|fusion|cameras?|ros|ros2|shuttle|tracking|simulation|robotics?)\b`)},
	{models.TopicWeb, regexp.MustCompile(`\b(web|website|site|portfolio|react|frontend|front-end|backend|back-end|apis?|booking|dashboards?|typescript|javascript|postgres|postgresql|serverless|chatbot|assistant|ui|ux)\b`)},
	{models.TopicAbout, regexp.MustCompile(`\b(who|jordan|experience|background|contact|hire|hiring|cv|resume|education|degree|msc|available|availability|email|career|roles?|skills?|yourself)\b`)},
}

// Classify maps a question to the first topic whose keyword group matches,
// or TopicAll when none do.
func Classify(question string) models.Topic {
	q := Normalize(question)
	for _, r := range topicRules {
		if r.re.MatchString(q) {
			return r.topic
		}
	}
	return models.TopicAll
}
