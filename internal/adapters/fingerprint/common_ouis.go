package fingerprint

// CommonOUIs is the built-in last resort table of prefixes frequently seen on
// consumer and enterprise access points.
var CommonOUIs = map[string]string{
	// Apple
	"00:03:93": "Apple",
	"00:0A:95": "Apple",
	"00:0D:93": "Apple",
	"00:11:24": "Apple",
	"00:14:51": "Apple",
	"00:16:CB": "Apple",
	"00:17:F2": "Apple",
	"00:19:E3": "Apple",
	"00:1B:63": "Apple",
	"00:1C:B3": "Apple",
	"00:1D:4F": "Apple",
	"00:1E:C2": "Apple",
	"00:1F:F3": "Apple",
	"00:21:E9": "Apple",
	"00:23:DF": "Apple",
	"00:25:00": "Apple",
	"00:26:08": "Apple",
	"00:26:BB": "Apple",

	// Cisco and Linksys
	"00:40:96": "Cisco",
	"00:1B:D4": "Cisco",
	"00:0C:41": "Linksys",
	"00:0F:66": "Linksys",
	"00:12:17": "Linksys",
	"00:13:10": "Linksys",
	"00:14:BF": "Linksys",
	"00:16:B6": "Linksys",
	"00:18:39": "Linksys",
	"00:1A:70": "Linksys",
	"00:1C:10": "Linksys",
	"00:1D:7E": "Linksys",
	"00:1E:E5": "Linksys",
	"00:21:29": "Linksys",
	"00:22:6B": "Linksys",
	"00:23:69": "Linksys",
	"00:25:9C": "Linksys",

	// Netgear
	"00:09:5B": "Netgear",
	"00:0F:B5": "Netgear",
	"00:14:6C": "Netgear",
	"00:1B:2F": "Netgear",
	"00:1E:2A": "Netgear",
	"00:1F:33": "Netgear",
	"00:24:B2": "Netgear",
	"00:26:F2": "Netgear",

	// D-Link
	"00:05:5D": "D-Link",
	"00:0F:3D": "D-Link",
	"00:11:95": "D-Link",
	"00:13:46": "D-Link",
	"00:15:E9": "D-Link",
	"00:17:9A": "D-Link",
	"00:19:5B": "D-Link",
	"00:1B:11": "D-Link",
	"00:1C:F0": "D-Link",
	"00:21:91": "D-Link",
	"00:22:B0": "D-Link",
	"00:26:5A": "D-Link",

	// TP-Link
	"00:19:E0": "TP-Link",
	"00:1D:0F": "TP-Link",
	"00:21:27": "TP-Link",
	"00:23:CD": "TP-Link",
	"00:25:86": "TP-Link",
	"00:27:19": "TP-Link",
	"14:CC:20": "TP-Link",
	"50:C7:BF": "TP-Link",
	"F8:1A:67": "TP-Link",

	// ASUS
	"00:0E:A6": "ASUSTek",
	"00:11:2F": "ASUSTek",
	"00:13:D4": "ASUSTek",
	"00:15:F2": "ASUSTek",
	"00:17:31": "ASUSTek",
	"00:1A:92": "ASUSTek",
	"00:1D:60": "ASUSTek",
	"00:1F:C6": "ASUSTek",
	"00:22:15": "ASUSTek",
	"00:24:8C": "ASUSTek",
	"00:26:18": "ASUSTek",

	// Other router and chipset vendors
	"00:11:50": "Belkin",
	"00:1C:DF": "Belkin",
	"00:0D:0B": "Buffalo",
	"00:16:01": "Buffalo",
	"00:18:82": "Huawei",
	"00:E0:FC": "Huawei",
	"00:A0:C5": "ZyXEL",
	"00:13:49": "ZyXEL",
	"00:19:CB": "ZyXEL",
	"00:23:F8": "ZyXEL",
	"00:0E:2E": "Edimax",
	"00:1F:1F": "Edimax",
	"00:15:6D": "Ubiquiti",
	"00:27:22": "Ubiquiti",
	"24:A4:3C": "Ubiquiti",
	"00:0B:86": "Aruba",
	"00:1A:1E": "Aruba",
	"00:0C:42": "MikroTik",
	"4C:5E:0C": "MikroTik",
	"00:1A:11": "Google",
	"00:10:18": "Broadcom",
	"00:03:7F": "Atheros",
	"00:E0:4C": "Realtek",
	"00:50:F2": "Microsoft",

	// Intel client adapters, often seen on hotspots
	"00:13:E8": "Intel",
	"00:16:6F": "Intel",
	"00:18:DE": "Intel",
	"00:1B:77": "Intel",
	"00:1E:65": "Intel",
	"00:21:5C": "Intel",
	"00:24:D7": "Intel",

	// Samsung
	"00:12:FB": "Samsung",
	"00:15:99": "Samsung",
	"00:16:32": "Samsung",
	"00:21:19": "Samsung",
	"00:24:54": "Samsung",
	"00:26:37": "Samsung",

	// Virtual machines
	"00:0C:29": "VMware",
	"00:50:56": "VMware",
	"08:00:27": "Oracle VirtualBox",
}
