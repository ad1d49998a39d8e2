package discovery

import (
	"fmt"
	"strings"

	"github.com/ternarybob/neighborhood/internal/models"
)

const DiscoverySystemPrompt = "You are a helpful assistant that finds local civic data sources. You return only valid JSON."

const PersonalitySystemPrompt = "You are an expert in conversational AI design and civic technology."

// BuildDiscoveryPrompt asks for a JSON array of sources for location
func BuildDiscoveryPrompt(location string) string {
	return fmt.Sprintf(`You are helping set up a local AI assistant for %[1]s.

Your task is to identify the best data sources to train this AI. Think creatively about:

1. **Official Government Sources:**
   - Town/city website URL
   - YouTube channels with meeting videos
   - Document repositories
   - Public records

2. **Local News:**
   - Local news websites
   - Community newsletters
   - Blogs

3. **Community Resources:**
   - Reddit communities
   - Facebook groups (public)
   - Local business directories
   - Community calendars

4. **Civic Data:**
   - Open data portals
   - GIS/mapping data
   - Budget documents

For %[1]s, provide a JSON list of recommended data sources with this structure:

`+"```json"+`
[
  {
    "name": "Source name",
    "type": "youtube_playlist|website|pdf_url|rss_feed|reddit",
    "url": "actual URL",
    "description": "Why this source is valuable",
    "priority": "high|medium|low",
    "estimated_content": "How much content (e.g., '50+ meeting videos', '200+ articles')"
  }
]
`+"```"+`

Be specific with actual URLs when possible. Focus on official, public, and high-quality sources.
Return ONLY the JSON array, no other text.`, location)
}

// BuildPersonalityPrompt summarizes up to ten sources and asks for a system prompt
func BuildPersonalityPrompt(municipality string, sources []models.DataSource) string {
	if len(sources) > maxPersonalitySources {
		sources = sources[:maxPersonalitySources]
	}
	lines := make([]string, len(sources))
	for i, src := range sources {
		lines[i] = fmt.Sprintf("- %s (%s): %s", src.Name, src.Type, src.Description)
	}

	return fmt.Sprintf(`Based on the following data sources for %s, suggest a personality and tone for a local AI assistant.

Data Sources:
%s

Consider:
1. The community's character (urban/suburban/rural, size, demographics)
2. The types of content available
3. The likely user needs

Provide a system prompt (2-3 paragraphs) that defines:
- Personality traits
- Tone and communication style
- Key capabilities to emphasize
- How to handle uncertainty

Make it warm, helpful, and appropriate for a civic assistant.`, municipality, strings.Join(lines, "\n"))
}

// FallbackPersonality is used when no backend can draft one
func FallbackPersonality(municipality string) string {
	return fmt.Sprintf("You are a helpful AI assistant for %s, focused on providing accurate information about local services, news, and community resources.", municipality)
}
