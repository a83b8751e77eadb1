package cli

// Export internal functions for testing.

// RunGenerate exports runGenerate for testing.
var RunGenerate = runGenerate

// GenerateOptions exports generateOptions for testing.
type GenerateOptions = generateOptions

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// SupportedFormatsList exports supportedFormatsList for testing.
var SupportedFormatsList = supportedFormatsList

// Mask exports mask for testing.
var Mask = mask
