package portal

// Status texts
const (
	MsgActivating            = "Activating, please wait..."
	MsgActivated             = "Activation successful!"
	MsgActivationFailed      = "Activation failed, please check your key."
	MsgActivationUnreachable = "Activation failed: unable to connect to the server. Please check your network."
	MsgActivationNotSaved    = "Activation succeeded but the license could not be saved."
	MsgDeviceUnavailable     = "Activation failed: the device identifier could not be read."

	MsgSubmitting            = "Submitting task..."
	MsgSubmitted             = "Task submitted successfully!"
	MsgSubmissionFailed      = "Submission failed, server error."
	MsgSubmissionUnreachable = "Submission failed: unable to connect to the API server."
)
