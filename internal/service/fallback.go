package service

import (
	"strings"
	"unicode/utf8"
)

// cannedTopic is a prepared answer used when neither the language model nor web search is reachable.
type cannedTopic struct {
	keywords []string
	intro    string
	heading  string
	clip     int
	sep      string
	outro    string
}

var cannedTopics = []cannedTopic{
	{
		keywords: []string{"article 14", "article14"},
		intro: `**Article 14 - Right to Equality**

Article 14 of the Indian Constitution states: "The State shall not deny to any person equality before the law or the equal protection of the laws within the territory of India."

**What this means:**
- **Equality before law**: All persons, regardless of their status, are subject to the same laws
- **Equal protection of laws**: The law must be applied equally to all persons in similar circumstances
- No discrimination based on religion, race, caste, sex, or place of birth

**Key Points:**
1. This is a fundamental right available to all persons (citizens and non-citizens)
2. It prohibits class legislation and ensures equal treatment
3. However, it allows for reasonable classification based on intelligible differentia
4. The state can make special provisions for women, children, and backward classes

**Examples of Article 14 violations:**
- Arbitrary government action without legal basis
- Discrimination in employment or services
- Unequal treatment in similar circumstances

`,
		heading: "Additional Legal Information",
		clip:    200,
		sep:     "\n\n",
		outro:   "\n\n**Disclaimer:** This information is for general knowledge only and not a substitute for professional legal advice.",
	},
	{
		keywords: []string{"stolen", "theft", "robbery", "chain", "jewelry"},
		intro: `**Theft/Robbery - Immediate Action Required**

**If your gold chain is being stolen RIGHT NOW:**
1. **Call Police immediately: 100 or 112**
2. **Do NOT chase the thief** - prioritize your safety
3. **Note down details:** thief's appearance, direction, vehicle number if any

**Legal provisions for theft:**
- **Section 378 IPC (old law)** or **Section 303 BNS (new law)**: Defines theft
- **Section 392 IPC** or **Section 309 BNS**: Robbery (theft with violence/threat)
- These are cognizable offenses - police MUST register FIR immediately

**Steps to take:**
1. **File FIR immediately** at nearest police station
2. **Provide complete details:** time, place, value of chain, circumstances
3. **Get FIR copy** - it's your legal right
4. **Insurance claim:** If insured, inform insurance company
5. **Follow up** regularly with investigating officer

**Important:** Act fast - evidence and witness memory fade quickly.

`,
		heading: "Additional Legal Information",
		clip:    200,
		sep:     "\n\n",
		outro:   "\n\n**Disclaimer:** This information is for general knowledge only and not a substitute for professional legal advice.",
	},
	{
		keywords: []string{"fir", "first information report"},
		intro: `**Filing an FIR (First Information Report)**

An FIR is a written document prepared by the police when they receive information about the commission of a cognizable offense. Here's what you need to know:

**How to file an FIR:**
1. Go to the nearest police station
2. Provide all details of the incident
3. The police MUST register your FIR - they cannot refuse
4. Get a free copy of the FIR
5. If police refuse, approach the Superintendent of Police or file a complaint with a Magistrate

**Important:** You have the right to file an FIR at any police station, not just the local one.

`,
		heading: "Additional Legal Information",
		clip:    200,
		sep:     "\n\n",
		outro:   "\n\n*Note: This is general information. For specific legal advice, consult a lawyer.*",
	},
	{
		keywords: []string{"bail", "arrest"},
		intro: `**Rights During Arrest and Bail**

**Your rights when arrested:**
1. Right to be informed of grounds for arrest
2. Right to remain silent
3. Right to legal representation
4. Right to inform family/friends
5. Right to medical examination if injured

**About Bail:**
- Bail is your right, not a privilege
- For most offenses, bail should be granted
- You can apply for bail immediately after arrest
- If denied, you can approach higher courts

`,
		heading: "Additional Legal Context",
		clip:    200,
		sep:     "\n\n",
		outro:   "\n\n*Note: This is general information. For specific legal advice, consult a lawyer.*",
	},
	{
		keywords: []string{"domestic violence", "harassment"},
		intro: `**Domestic Violence and Harassment**

**Immediate steps:**
1. Ensure your safety first
2. Call Women Helpline: 181 or 1091
3. File a complaint with police
4. Seek medical help if injured
5. Document all incidents

**Legal remedies:**
- Protection of Women from Domestic Violence Act (PWDVA)
- File FIR for criminal offenses
- Approach NCW (National Commission for Women)
- Get legal aid from NALSA

`,
		heading: "Additional Information",
		clip:    200,
		sep:     "\n\n",
		outro:   "\n\n*Note: This is general information. For specific legal advice, consult a lawyer.*",
	},
}

var genericTopic = cannedTopic{
	intro: `**Legal Information - {query}**

I understand you're asking about: "{query}"

Based on your query, here are some general legal principles:

**Key Points:**
- Every citizen has fundamental rights under the Constitution
- Right to equality, life, liberty, and legal remedies
- Access to courts and legal aid
- Right to fair trial and legal representation

**What you can do:**
1. Consult a qualified lawyer for specific advice
2. Contact Legal Services Authority for free legal aid
3. File appropriate complaints with relevant authorities
4. Know your constitutional rights

`,
	heading: "Relevant Legal Information",
	clip:    300,
	sep:     "\n\n---\n\n",
	outro:   `

**Helplines:**
- National Legal Services Authority: www.nalsa.gov.in
- Women Helpline: 181
- Cyber Crime: 1930
- Emergency: 112

*Note: This is general information only. For specific legal advice tailored to your situation, please consult a qualified lawyer.*`,
}

// fallbackAnswer picks a canned answer by keyword. related texts, if any, are appended as
// supporting excerpts.
func fallbackAnswer(query string, related []string) string {
	lower := strings.ToLower(query)
	topic := genericTopic
	for _, t := range cannedTopics {
		if containsAny(lower, t.keywords) {
			topic = t
			break
		}
	}

	var b strings.Builder
	b.WriteString(strings.ReplaceAll(topic.intro, "{query}", query))
	if len(related) > 0 {
		clipped := make([]string, 0, len(related))
		for _, text := range related {
			clipped = append(clipped, clipRunes(text, topic.clip))
		}
		b.WriteString("\n**" + topic.heading + ":**\n")
		b.WriteString(strings.Join(clipped, topic.sep))
	}
	b.WriteString(topic.outro)
	return b.String()
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// clipRunes returns at most n runes of s.
func clipRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
