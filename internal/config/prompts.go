package config

const DefaultEntityPrompt = `You are generating a realistic, internally consistent instance of an entity type.

Entity type: %s
Description: %s

Dimensions (every attribute must respect its type and constraints):
%s
Additional instructions: %s

Return ONLY a JSON object of the form:
{
  "name": "a fitting name",
  "description": "a short backstory written in the third person",
  "attributes": {"<dimension name>": <value>, ...}
}
Booleans must be true or false, numbers must be plain numbers, categorical values must be one of the listed options.`

const DefaultDialoguePrompt = `Simulate a conversation between the participants below.

Context:
%s

Participants:
%s
Write exactly %d turns, numbered from Turn %d. Each turn starts on its own line as
"Turn <number> - <participant name>: <what they say or do>".
Stay in character; let each participant's attributes shape how they speak.

Return ONLY a JSON object:
{"content": "<the turns, separated by newlines>", "final_turn_number": <number of the last turn written>}`

const DefaultContinuationPrompt = `Continue the conversation between the participants below.

Context:
%s

Participants:
%s
Conversation so far:
%s

Write exactly %d more turns, numbered from Turn %d. Do not repeat earlier turns.
Each turn starts on its own line as "Turn <number> - <participant name>: <what they say or do>".

Return ONLY a JSON object:
{"content": "<the new turns only, separated by newlines>", "final_turn_number": <number of the last turn written>}`
