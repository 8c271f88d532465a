package assessment

import "errors"

// ErrAnalysisFailed means the model returned output that could not be
// parsed into an assessment. Nothing partial is returned; the user may
// resubmit.
var ErrAnalysisFailed = errors.New("analysis failed")
