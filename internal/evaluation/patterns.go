package evaluation

import (
	"regexp"
	"strings"
)

// STAR components in narrative order.
const (
	starSituation = "situation"
	starTask      = "task"
	starAction    = "action"
	starResult    = "result"
)

var starOrder = []string{starSituation, starTask, starAction, starResult}

// All patterns run against the lower-cased answer.
var starPatterns = map[string]*regexp.Regexp{
	starSituation: regexp.MustCompile(`\b(when i was|while working|while i was|at my (previous|last|current) (company|job|role)|in my (previous|last|current) (role|job|position)|we were facing|the situation|the context|there was a|we had a|our team (was|had))\b`),
	starTask:      regexp.MustCompile(`\b(my (responsibility|role|task|goal|job) (was|is)|i was (responsible|asked|tasked)|the (goal|task|challenge|problem|objective) was|needed to|had to|in charge of)\b`),
	starAction:    regexp.MustCompile(`\b(i (implemented|designed|built|created|developed|led|analyzed|analysed|decided|introduced|wrote|refactored|migrated|diagnosed|redesigned|organized|coordinated|automated|optimized|proposed|drove|launched|deployed|added|used|improved|reduced|set up)|diagnosing|redesigning|implementing|designing|building|analyzing)\b`),
	starResult:    regexp.MustCompile(`\b(as a result|resulting in|resulted in|the result|which led to|led to|outcome|improved|reduced|increased|decreased|saved|savings|achieved|delivered|cut)\b`),
}

var (
	sequencePattern = regexp.MustCompile(`\b(first|firstly|second|secondly|third|then|next|after that|afterwards|finally|lastly|subsequently|initially|to start)\b`)
	fillerPattern   = regexp.MustCompile(`\b(um+|uh+|erm|you know|i mean|sort of|kind of|maybe|perhaps|i guess|i think|probably|basically|actually|literally|stuff|things|something|somehow|whatever|really|a lot)\b`)
	numberPattern   = regexp.MustCompile(`\d[\d,]*(\.\d+)?`)
	unitPattern     = regexp.MustCompile(`([$€£]\s?\d[\d,]*(\.\d+)?\s?[kmb]?\b|\d[\d,]*(\.\d+)?\s?(%|percent\b)|\d[\d,]*(\.\d+)?\s?(ms|milliseconds?|seconds?|secs?|minutes?|mins?|hours?|hrs?|days?|weeks?|months?|years?|x)\b)`)
	jargonPattern   = regexp.MustCompile(`\b(distributed|cach(e|es|ed|ing)|cluster(s|ing)?|hashing|circuit breakers?|tracing|observability|latency|throughput|scalab\w*|architect\w*|microservices?|container\w*|idempoten\w*|shard\w*|replica\w*|consisten\w*|pipelines?|deploy\w*|rollbacks?|index\w*|quer(y|ies)|schemas?|migrat\w*|load balanc\w*|concurren\w*|asynchronous|async|databases?|backend|frontend|infrastructure|monitoring|metrics|bottlenecks?|performance|maintainab\w*|reliab\w*|trade-?offs?|load|systems?|apis?|endpoints?|algorithms?|refactor\w*|invalidation|blue-green|uptime|downtime|cost-effective)\b`)
	explainPattern  = regexp.MustCompile(`\b(which means|that is|in other words|so that|because|this allowed|this let)\b`)
	ownershipVerbs  = regexp.MustCompile(`\b(i (led|decided|owned|drove|initiated|took|implemented|designed|built|created|managed|delivered|proposed|championed|spearheaded|made|chose|diagnosed|redesigned|improved|reduced)|my (responsibility|decision|initiative|idea))\b`)
	firstPerson     = regexp.MustCompile(`\b(i|my|me|i'm|i've)\b`)
	collective      = regexp.MustCompile(`\b(we|our|us|we're|we've)\b`)
	sentenceSplit   = regexp.MustCompile(`[.!?]+`)
	signalWord      = regexp.MustCompile(`[a-z]+`)
)

// competencyPatterns hold keyword sets for competencies that are not measured
// by another signal. technical and behavioral are handled separately.
var competencyPatterns = map[string]*regexp.Regexp{
	"leadership":      regexp.MustCompile(`\b(led|lead|team|mentor\w*|stakeholders?|decid\w*|align\w*|delegat\w*|vision|ownership|hired|coach\w*)\b`),
	"communication":   regexp.MustCompile(`\b(explain\w*|present\w*|stakeholders?|document\w*|communicat\w*|listen\w*|feedback|audience|clarif\w*|conciseness|concise)\b`),
	"problem_solving": regexp.MustCompile(`\b(approach|analy[sz]\w*|root cause|hypothes\w*|debug\w*|diagnos\w*|investigat\w*|method\w*|experiment\w*|trade-?offs?)\b`),
}

const tokenCutset = `.,!?;:()[]"'`

var knownTools = wordSet(`redis kafka rabbitmq docker kubernetes k8s postgres postgresql mysql mongodb dynamodb
	cassandra elasticsearch prometheus grafana jaeger hystrix datadog terraform ansible jenkins github gitlab
	aws gcp azure s3 ec2 lambda python golang java kotlin rust typescript javascript react django flask spring
	graphql grpc api sql nosql spark hadoop airflow snowflake tableau excel jira linux nginx ttl git tensorflow
	pytorch pandas`)

var stopWords = wordSet(`the a an and or but in on at to for of with by is are was were be been being have has
	had do does did will would could should may might can this that these those there their about which from into`)

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// KnownTools returns the recognised tool and technology names found in text,
// in order of first appearance.
func KnownTools(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, tokenCutset)
		if _, ok := knownTools[w]; !ok {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
