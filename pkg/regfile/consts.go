package regfile

const (
	// Header5 is the header line of Unicode .reg files.
	Header5 = "Windows Registry Editor Version 5.00"

	// Header4 is the header line of legacy ANSI .reg files.
	Header4 = "REGEDIT4"

	keyOpenBracket     = "["
	keyCloseBracket    = "]"
	deleteKeyPrefix    = "-"
	valueAssignment    = "="
	defaultValuePrefix = "@="
	commentPrefix      = ";"
	deleteValueToken   = "-"

	quote            = "\""
	backslash        = "\\"
	escapedQuote     = "\\\""
	escapedBackslash = "\\\\"

	crlf = "\r\n"

	dwordPrefix   = "dword:"
	hexPrefix     = "hex:"
	hexTypeFormat = "hex(%x):"
	hexWord       = "hex"

	hexByteFormat    = "%02x"
	hexByteSeparator = ","
	dwordHexFormat   = "%08x"
	dwordHexLength   = 8

	// Exported hex data wraps before this column, as regedit does.
	hexLineWidth     = 80
	hexContinuation  = "\\" + crlf + "  "
	continuationMark = '\\'
)

// Output encodings accepted by Options.Encoding.
const (
	EncodingUTF16LE = "UTF-16LE" // Version 5.00 header, BOM
	EncodingUTF8    = "UTF-8"    // Version 5.00 header, no BOM
	EncodingANSI    = "ANSI"     // REGEDIT4 header, Windows-1252
)

var (
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
)
