package qirruntime

// EntryPointAttrs are the static resource requirements of an entry routine,
// read from its IR attributes. Backends use them to size their buffers.
type EntryPointAttrs struct {
	// RequiredNumQubits is "required_num_qubits".
	RequiredNumQubits SizeType
	// RequiredNumResults is "required_num_results".
	RequiredNumResults SizeType
	// OutputLabelingSchema is "output_labeling_schema", empty if absent.
	OutputLabelingSchema string
	// Profiles is "qir_profiles", e.g. "base_profile".
	Profiles string
}

// ModuleFlags are the QIR module flags from !llvm.module.flags.
type ModuleFlags struct {
	MajorVersion            int64
	MinorVersion            int64
	DynamicQubitManagement  bool
	DynamicResultManagement bool
}

// Entry-point and module flag attribute names.
const (
	AttrEntryPoint           = "entry_point"
	AttrRequiredNumQubits    = "required_num_qubits"
	AttrRequiredNumResults   = "required_num_results"
	AttrOutputLabelingSchema = "output_labeling_schema"
	AttrProfiles             = "qir_profiles"

	// Older producers emit these spellings.
	AttrLegacyNumQubits  = "num_required_qubits"
	AttrLegacyNumResults = "num_required_results"

	FlagMajorVersion            = "qir_major_version"
	FlagMinorVersion            = "qir_minor_version"
	FlagDynamicQubitManagement  = "dynamic_qubit_management"
	FlagDynamicResultManagement = "dynamic_result_management"
)
