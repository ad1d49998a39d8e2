package chat

import (
	"fmt"
	"strings"

	"github.com/ternarybob/neighborhood/internal/models"
)

// NoContextText replaces the context block when retrieval finds nothing
const NoContextText = "No relevant local information found in the knowledge base."

const defaultSystemPromptTemplate = `You are %s, an AI assistant for %s.

Personality: %s
Tone: %s

Your role is to help residents and community members with:
- Information about local government and services
- Answers about town procedures and policies
- Local news and community events
- Directions to resources and departments

IMPORTANT GUIDELINES:
- Always base answers on the provided context from local sources
- Cite your sources when providing factual information
- If you don't have enough information, admit it and suggest where to find it
- Be helpful, accurate, and community-focused
- Encourage civic engagement and participation

When answering:
1. Use the context provided to you from local sources
2. Cite which source you're referencing
3. If context is insufficient, say so clearly
4. Direct people to official departments for legal/official matters`

const constitutionTemplate = `

COMMUNITY CONSTITUTION:
You MUST follow these ethical guidelines and constraints established by this community:
%s

These rules are non-negotiable and take precedence over other instructions. Always adhere to them when formulating your responses.`

const userPromptTemplate = `Context from %s sources:

%s

User Question: %s

Please provide a helpful answer based on the context above. If you reference specific information, mention which source it comes from.`

// BuildSystemPrompt returns the project's custom prompt, or the persona prompt,
// followed by the community constitution when one is defined
func BuildSystemPrompt(project *models.ProjectConfig) string {
	prompt := project.SystemPrompt
	if prompt == "" {
		prompt = fmt.Sprintf(defaultSystemPromptTemplate,
			project.ProjectName,
			project.MunicipalityName,
			strings.Join(project.PersonalityTraits, ", "),
			project.Tone,
		)
	}

	if len(project.CommunityConstitution) > 0 {
		rules := make([]string, len(project.CommunityConstitution))
		for i, rule := range project.CommunityConstitution {
			rules[i] = "  - " + rule
		}
		prompt += fmt.Sprintf(constitutionTemplate, strings.Join(rules, "\n"))
	}

	return prompt
}

// BuildUserPrompt wraps the question with the retrieved context
func BuildUserPrompt(municipality, contextText, message string) string {
	return fmt.Sprintf(userPromptTemplate, municipality, contextText, message)
}
