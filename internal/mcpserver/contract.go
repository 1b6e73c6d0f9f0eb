package mcpserver

// KeyboardFormatContract describes the keyboard set file the rotation reads.
const KeyboardFormatContract = `# Perch Keyboard Set Format

Keyboard sets live in one YAML file. The order of the list is the rotation
order: on day N (counted from 2025-01-01 in the player's timezone) the game
shows set number N mod len(sets).

` + "```" + `yaml
sets:
  - name: qwerty                       # REQUIRED, unique
    rows: ["QWERTYUIOP", "ASDFGHJKL", "ZXCVBNM"]
  - name: alpha
    rows: ["ABCDEFGHI", "JKLMNOPQR", "STUVWXYZ"]
` + "```" + `

## Rules

1. **name** is required and unique across the file.
2. **rows** is a non-empty list of non-empty strings, top row first.
3. Appending a set is safe. Reordering or removing sets shifts which set
   every later day gets.
4. The server reloads the file on change; an invalid file is rejected and
   the previous sets stay active.
`
