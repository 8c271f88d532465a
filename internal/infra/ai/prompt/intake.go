package prompt

// VoiceExtraction asks the fast model to map a spoken intake onto the
// six form fields. Unknown fields come back as empty strings.
func VoiceExtraction() string {
	return "Extract structured medical intake data from this audio. Map findings to these keys: name, age, gender, symptoms, duration, history. Use empty strings if not mentioned. Return ONLY JSON."
}
