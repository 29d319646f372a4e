// Package taxonomy holds the static per-attribute keyword sets used by the
// keyword relevance filter.
package taxonomy

import "github.com/ppiankov/vouch/internal/model"

// Role and seniority language for buyer-titles
var buyerTitleKeywords = []string{
	// executive
	"ceo", "cfo", "coo", "cto", "cio", "cmo", "cro", "ciso", "chief", "founder", "co-founder",
	"owner", "president", "vice president", "vp", "svp", "evp", "executive", "c-suite", "board",
	// management
	"director", "head of", "manager", "managing", "lead", "supervisor", "principal", "partner",
	"managing partner", "senior", "team lead", "department head", "general manager",
	// practitioners
	"analyst", "associate", "coordinator", "specialist", "administrator", "admin", "assistant",
	"engineer", "developer", "architect", "consultant", "accountant", "controller", "bookkeeper",
	"attorney", "lawyer", "paralegal", "counsel", "legal", "clerk", "nurse", "physician", "doctor",
	"recruiter", "human resources", "operations", "ops", "procurement", "purchasing", "buyer",
	"sales rep", "account executive", "marketer", "marketing", "finance", "it team", "staff",
	"employee", "contractor", "intern", "officer", "agent", "representative", "technician",
	// buying process
	"decision maker", "decision-maker", "sign off", "signs off", "approve", "approval", "approves",
	"budget holder", "budget", "champion", "stakeholder", "influencer", "gatekeeper",
	"my boss", "reports to", "report to", "my team", "our team", "role", "title", "job",
	"responsible for", "in charge of", "oversee", "oversees", "hire", "hired", "assign", "delegate",
}

// Organization sizing language for company-size
var companySizeKeywords = []string{
	"employees", "employee", "headcount", "staff", "people", "person", "team of", "team size",
	"small business", "smb", "mid-size", "midsize", "mid-market", "mid market", "enterprise",
	"startup", "start-up", "scale-up", "fortune 500", "fortune 1000", "large company",
	"small company", "small firm", "large firm", "boutique", "solo", "solo practitioner",
	"single location", "locations", "offices", "office", "branches", "branch", "regions",
	"global", "national", "regional", "local", "international", "multinational",
	"revenue", "annual recurring", "annual", "million", "billion", "thousand", "k a year",
	"customers", "clients", "accounts", "users", "seats", "licenses", "departments",
	"division", "subsidiary", "franchise", "growing", "grew", "doubled", "tripled",
	"hiring", "layoffs", "funding", "series a", "series b", "series c", "bootstrapped",
	"public company", "private company", "privately held", "family-owned", "size",
}

// Problem and frustration language for pain-points
var painPointKeywords = []string{
	"problem", "problems", "issue", "issues", "challenge", "challenges", "struggle", "struggling",
	"frustrat", "annoying", "annoyed", "pain", "painful", "headache", "nightmare", "hate",
	"difficult", "hard to", "hard time", "tough", "complicated", "complex", "confusing",
	"slow", "too long", "takes forever", "time-consuming", "time consuming", "waste", "wasted",
	"manual", "manually", "spreadsheet", "spreadsheets", "copy and paste", "error", "errors",
	"mistake", "mistakes", "broken", "breaks", "bug", "bugs", "fail", "fails", "failure",
	"missing", "lack", "lacking", "can't", "cannot", "unable", "doesn't work", "don't work",
	"bottleneck", "backlog", "delay", "delays", "overwhelmed", "burnout", "stress", "stressful",
	"expensive", "costly", "cost us", "losing", "lost", "churn", "risk", "compliance",
	"visibility", "no way to", "workaround", "duct tape", "clunky", "tedious", "inefficient",
	"worry", "worried", "concern", "concerned", "complain", "complaint", "friction", "gap",
}

// Goal and success language for desired-outcomes
var desiredOutcomeKeywords = []string{
	"want", "wants", "wish", "hope", "goal", "goals", "objective", "objectives", "outcome",
	"outcomes", "result", "results", "success", "succeed", "achieve", "accomplish", "target",
	"improve", "improvement", "increase", "reduce", "decrease", "save", "saving", "savings",
	"faster", "quicker", "easier", "simpler", "automate", "automation", "streamline",
	"efficiency", "efficient", "productivity", "productive", "visibility", "insight", "insights",
	"accuracy", "accurate", "control", "scale", "grow", "growth", "revenue", "profit",
	"return on", "win", "winning", "better", "best", "ideal", "ideally", "dream", "perfect",
	"would love", "looking for", "need", "needs", "must have", "nice to have", "priority",
	"priorities", "focus", "free up", "peace of mind", "confidence", "consistent", "reliable",
	"metric", "metrics", "kpi", "kpis", "measure", "benchmark", "by the end of", "so that",
}

// Timing and event language for triggers
var triggerKeywords = []string{
	"when", "after", "before", "once", "as soon as", "since", "started", "start", "began",
	"began to", "trigger", "triggered", "moment", "point", "turning point", "finally",
	"realized", "realised", "decided", "decision", "switch", "switched", "moved", "migrate",
	"migration", "replace", "replaced", "upgrade", "renewal", "renew", "contract ended",
	"contract expired", "new hire", "new ceo", "new leadership", "reorg", "reorganization",
	"merger", "acquisition", "acquired", "funding", "raised", "audit", "regulation",
	"deadline", "quarter", "year-end", "fiscal", "budget cycle", "season", "busy season",
	"growth", "grew", "expanded", "expansion", "launch", "launched", "incident", "outage",
	"breach", "lost a", "last straw", "tipping point", "urgent", "urgency", "right away",
	"immediately", "this year", "last year", "next year", "month", "week", "recently",
}

// Obstacle and objection language for barriers
var barrierKeywords = []string{
	"barrier", "barriers", "obstacle", "obstacles", "blocker", "blockers", "blocked",
	"objection", "objections", "hesitant", "hesitate", "hesitation", "reluctant", "resist",
	"resistance", "pushback", "push back", "concern", "concerns", "worried", "risk", "risky",
	"too expensive", "expensive", "price", "pricing", "cost", "budget", "afford", "cheap",
	"security", "privacy", "compliance", "legal review", "procurement", "approval", "red tape",
	"integration", "integrate", "migration", "switching cost", "learning curve", "training",
	"adoption", "buy-in", "buy in", "change management", "not a priority", "no time",
	"bandwidth", "resources", "it department", "it team", "vendor", "lock-in", "locked in",
	"contract", "trust", "don't trust", "skeptical", "sceptical", "proven", "unproven",
	"already have", "already use", "good enough", "status quo", "we tried", "tried before",
	"failed before", "didn't work", "complexity", "complicated", "setup", "implementation",
}

// Value-proposition language for messaging-emphasis
var messagingKeywords = []string{
	"value", "valuable", "benefit", "benefits", "feature", "features", "love", "loved",
	"like", "liked", "favorite", "favourite", "best part", "most important", "important",
	"matters", "care about", "cares about", "resonate", "resonates", "sold me", "convinced",
	"selling point", "differentiator", "different", "unique", "stand out", "stands out",
	"compared to", "versus", "competitor", "competitors", "alternative", "alternatives",
	"easy to use", "ease of use", "simple", "intuitive", "fast", "speed", "reliable",
	"reliability", "support", "customer service", "price", "pricing", "return on investment", "save time",
	"save money", "peace of mind", "trust", "security", "secure", "integration", "integrates",
	"automation", "automated", "dashboard", "report", "reports", "mobile", "quality",
	"would tell", "recommend", "recommended", "word of mouth", "pitch", "message", "messaging",
	"headline", "tagline", "positioning", "angle", "emphasis", "emphasize", "highlight",
	"lead with", "talk about", "hear about", "why we chose", "why we picked", "reason we",
}

var keywordSets = map[model.AttributeType][]string{
	model.AttrBuyerTitles:       buyerTitleKeywords,
	model.AttrCompanySize:       companySizeKeywords,
	model.AttrPainPoints:        painPointKeywords,
	model.AttrDesiredOutcomes:   desiredOutcomeKeywords,
	model.AttrTriggers:          triggerKeywords,
	model.AttrBarriers:          barrierKeywords,
	model.AttrMessagingEmphasis: messagingKeywords,
}
