package meta

// BlockDescriptor locates one compressed block within the file and records
// how many items it decompresses to.
type BlockDescriptor struct {
	Seekpos  uint64 `yaml:"seekpos"`
	NumItems uint32 `yaml:"numitems"`
}
