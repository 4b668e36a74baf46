// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"fmt"

	"github.com/poiesic/committee/ai"
)

const systemPromptTemplate = `You are a precise assistant that answers only with JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.
- Use only information present in the user's message. Do not hallucinate.`

// buildSystemPrompt creates the system prompt with the output schema embedded.
func buildSystemPrompt(shape ai.OutputShape) string {
	return fmt.Sprintf(systemPromptTemplate, shape.Schema)
}
