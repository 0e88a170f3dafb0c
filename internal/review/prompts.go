package review

import "fmt"

const toolProtocol = `You may request job data before answering by replying with exactly one JSON object:
{"tool":"GetJobInfo"} or {"tool":"GetSourceSubtitles"} or {"tool":"GetTargetSubtitles"}.
Each tool result is returned to you as a JSON object with "result" or "error". You may use up to 4 tool calls.`

const specialistAnswerFormat = `When you are ready, answer with a single JSON object:
{"score": <0-100>, "reasoning": "<your analysis>", "issues": [{"severity": "info|minor|major|critical", "description": "<issue>"}]}.
Respond with JSON only.`

var specialistPrompts = map[Dimension]string{
	DimensionTranslation: `You are a translation quality reviewer. You evaluate how faithfully and fluently
subtitle content was translated: meaning preservation, register, idiom handling, and completeness.
` + toolProtocol + `
` + specialistAnswerFormat,
	DimensionTechnical: `You are a technical subtitle quality reviewer. You evaluate timing plausibility,
line lengths, formatting, character encoding, cue numbering, and structural integrity of the subtitle file.
` + toolProtocol + `
` + specialistAnswerFormat,
	DimensionCultural: `You are a cultural adaptation reviewer. You evaluate whether the translation adapts
cultural references, honorifics, humor, and locale conventions appropriately for the target audience.
` + toolProtocol + `
` + specialistAnswerFormat,
}

const summarizerPrompt = `You synthesize subtitle quality reviews. Given three specialist evaluations and an
overall score, write a short narrative summary for a human reviewer deciding whether to approve the translation.
` + toolProtocol + `
Answer with a single JSON object: {"summary": "<2-5 sentence narrative>"}. Respond with JSON only.`

func specialistInstruction(jobCtx JobContext) string {
	return fmt.Sprintf(
		"Evaluate the subtitle translation from %s to %s. Fetch the job info and both subtitle documents with the tools, then give your final answer.",
		jobCtx.SourceLocale(), jobCtx.TargetLocale(),
	)
}
